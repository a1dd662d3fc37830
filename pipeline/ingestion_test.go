package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_StripsBOM(t *testing.T) {
	body := "\ufeff" + rawHeader + "01-01-2025,24,30,27,85,0,5,4,180,2,N\n"
	df, err := ReadCSV(strings.NewReader(body), IngestionConfig{})
	require.NoError(t, err)

	assert.Equal(t, ColDate, df.Names()[0])
	_, err = NewDataCleaner().Clean(df)
	assert.NoError(t, err)
}

func TestReadCSV_LegacyEncoding(t *testing.T) {
	// "Ü" in windows-1252 is the single byte 0xDC
	body := rawHeader + "01-01-2025,24,30,27,85,0,5,4,180,2,\xdc\n"
	df, err := ReadCSV(strings.NewReader(body), IngestionConfig{Encoding: "windows-1252"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ü"}, df.Col(ColDDDCar).Records())
}

func TestReadCSV_UnknownEncoding(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(rawHeader), IngestionConfig{Encoding: "klingon"})
	assert.Error(t, err)
}

func TestSaveAndLoadCleaned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "raw.csv")
	require.NoError(t, SaveCSV(path, sampleRaw(t)))

	cleaner := NewDataCleaner()
	df, err := LoadCleaned(path, IngestionConfig{}, cleaner)
	require.NoError(t, err)
	assert.Equal(t, CanonicalColumns(), df.Names())
	assert.Equal(t, 4, cleaner.Stats().Rows)

	_, err = LoadCSV(filepath.Join(dir, "missing.csv"), IngestionConfig{})
	assert.Error(t, err)
}
