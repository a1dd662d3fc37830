package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"valid", "14-12-2025", true},
		{"surrounding spaces", " 01-02-2024 ", true},
		{"iso order", "2025-14-12", false},
		{"month out of range", "01-13-2025", false},
		{"slashes", "14/12/2025", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDate(tt.input)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var dateErr *DateFormatError
			require.True(t, errors.As(err, &dateErr))
			assert.Equal(t, tt.input, dateErr.Value)
			assert.Contains(t, err.Error(), "DD-MM-YYYY")
		})
	}
}

func TestMonthDay(t *testing.T) {
	month, day, ok := MonthDay("05-07-2025")
	assert.True(t, ok)
	assert.Equal(t, 7.0, month)
	assert.Equal(t, 5.0, day)

	month, day, ok = MonthDay("not a date")
	assert.False(t, ok)
	assert.True(t, math.IsNaN(month))
	assert.True(t, math.IsNaN(day))
}

func TestBuildFeatures(t *testing.T) {
	row, err := BuildFeatures(Record{TANGGAL: "14-12-2025", TN: 1, RHAvg: 90, DDDCar: " NW "})
	require.NoError(t, err)
	assert.Equal(t, 12.0, row.Month)
	assert.Equal(t, 14.0, row.Day)
	assert.Equal(t, "NW", row.DDDCar)
	assert.Len(t, row.Numeric(), len(NumericFeatures()))

	_, err = BuildFeatures(Record{TANGGAL: "2025-14-12"})
	var dateErr *DateFormatError
	assert.ErrorAs(t, err, &dateErr)
}

func TestBuildFeatures_MissingCategory(t *testing.T) {
	row, err := BuildFeatures(Record{TANGGAL: "14-12-2025", DDDCar: "NaN"})
	require.NoError(t, err)
	assert.Equal(t, "", row.DDDCar)
}

func TestIsMissingCategory(t *testing.T) {
	for _, v := range []string{"", " ", "NA", "NaN", "nan", "<nil>"} {
		assert.True(t, IsMissingCategory(v), v)
	}
	for _, v := range []string{"N", "C", "0"} {
		assert.False(t, IsMissingCategory(v), v)
	}
}

func TestFeatureNamesOrder(t *testing.T) {
	names := FeatureNames()
	assert.Equal(t, ColDDDCar, names[len(names)-1])
	assert.Equal(t, []string{ColMonth, ColDay}, names[8:10])
	assert.Len(t, CanonicalColumns(), 12)
	assert.NotContains(t, CanonicalColumns(), ColRR)
}

func TestFrameRows(t *testing.T) {
	in := []Features{
		{TN: 20, TX: 30, TAVG: 25, RHAvg: 80, SS: 5, FFX: 4, DDDX: 90, FFAvg: 2, Month: 1, Day: 2, DDDCar: "E"},
		{TN: math.NaN(), TX: 31, TAVG: 26, RHAvg: 81, SS: 6, FFX: 5, DDDX: 91, FFAvg: 3, Month: 1, Day: 3},
	}
	df := Frame(in)
	assert.Equal(t, FeatureNames(), df.Names())

	out, err := Rows(df)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0], out[0])
	assert.True(t, math.IsNaN(out[1].TN))
	assert.Equal(t, "", out[1].DDDCar)
}

func TestSplitFeatureTarget(t *testing.T) {
	cleaned, err := NewDataCleaner().Clean(sampleRaw(t))
	require.NoError(t, err)

	x, y, err := SplitFeatureTarget(cleaned)
	require.NoError(t, err)
	assert.Equal(t, FeatureNames(), x.Names())
	assert.Equal(t, []int{0, 1, 0, 0}, y)

	_, _, err = SplitFeatureTarget(x)
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestRows_MissingColumns(t *testing.T) {
	df := Frame([]Features{{DDDCar: "N"}}).Drop([]string{ColTX})
	_, err := Rows(df)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{ColTX}, schemaErr.Missing)
}
