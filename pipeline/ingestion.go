package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// IngestionConfig controls how observation files are decoded.
type IngestionConfig struct {
	// Encoding is a WHATWG encoding label such as "windows-1252". Empty or
	// "utf-8" means UTF-8 with an optional byte order mark.
	Encoding string `json:"encoding"`
}

// NewDecodingReader wraps r so the CSV parser always sees UTF-8.
func NewDecodingReader(r io.Reader, encoding string) (io.Reader, error) {
	label := strings.ToLower(strings.TrimSpace(encoding))
	if label == "" || label == "utf-8" || label == "utf8" {
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", encoding, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// ReadCSV loads a CSV table. Every column is read as text; typing is the
// cleaner's job so malformed cells degrade to missing values instead of
// failing the whole file.
func ReadCSV(r io.Reader, cfg IngestionConfig) (dataframe.DataFrame, error) {
	decoded, err := NewDecodingReader(r, cfg.Encoding)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df := dataframe.ReadCSV(decoded,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read csv: %w", df.Err)
	}
	return df, nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, cfg IngestionConfig) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer file.Close()
	return ReadCSV(file, cfg)
}

// LoadCleaned reads path and runs it through cleaner.
func LoadCleaned(path string, cfg IngestionConfig, cleaner *DataCleaner) (dataframe.DataFrame, error) {
	raw, err := LoadCSV(path, cfg)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	cleaned, err := cleaner.Clean(raw)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("clean %s: %w", path, err)
	}
	return cleaned, nil
}

// SaveCSV writes df to path, creating parent directories.
func SaveCSV(path string, df dataframe.DataFrame) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(file); err != nil {
		file.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return file.Close()
}
