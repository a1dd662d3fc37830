package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// CleaningStats counts what the cleaner had to repair on its last run.
type CleaningStats struct {
	Rows         int            `json:"rows"`
	Sentinels    map[string]int `json:"sentinels"`
	Coerced      map[string]int `json:"coerced"`
	InvalidDates int            `json:"invalid_dates"`
	RainyDays    int            `json:"rainy_days"`
	PreCleaned   bool           `json:"pre_cleaned"`
}

// DataCleaner normalizes raw weather tables into the canonical
// feature/label layout.
type DataCleaner struct {
	stats CleaningStats
}

// NewDataCleaner creates a cleaner.
func NewDataCleaner() *DataCleaner {
	return &DataCleaner{}
}

// Stats returns the counters collected by the last Clean call.
func (dc *DataCleaner) Stats() CleaningStats {
	return dc.stats
}

// Clean returns the canonical table for df. Tables without TANGGAL are
// assumed to be cleaned already and are only checked and reordered.
func (dc *DataCleaner) Clean(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	dc.stats = CleaningStats{
		Rows:      df.Nrow(),
		Sentinels: make(map[string]int),
		Coerced:   make(map[string]int),
	}

	if !HasColumn(df, ColDate) {
		dc.stats.PreCleaned = true
		if missing := MissingColumns(df, CanonicalColumns()); len(missing) > 0 {
			return dataframe.DataFrame{}, &SchemaError{Missing: missing}
		}
		out := df.Select(CanonicalColumns())
		return out, out.Err
	}

	if missing := MissingColumns(df, RawColumns()); len(missing) > 0 {
		return dataframe.DataFrame{}, &SchemaError{Missing: missing}
	}

	dates := df.Col(ColDate).Records()
	months := make([]float64, len(dates))
	days := make([]float64, len(dates))
	for i, d := range dates {
		m, day, ok := MonthDay(d)
		if !ok {
			dc.stats.InvalidDates++
		}
		months[i], days[i] = m, day
	}

	numeric := make(map[string][]float64)
	for _, col := range []string{ColTN, ColTX, ColTAVG, ColRHAvg, ColSS, ColFFX, ColDDDX, ColFFAvg, ColRR} {
		numeric[col] = dc.coerceNumeric(col, df.Col(col))
	}
	numeric[ColMonth] = months
	numeric[ColDay] = days

	rain := make([]int, len(dates))
	for i, rr := range numeric[ColRR] {
		if !math.IsNaN(rr) && rr > 0 {
			rain[i] = 1
			dc.stats.RainyDays++
		}
	}

	cats := df.Col(ColDDDCar).Records()
	codes := make([]string, len(cats))
	for i, c := range cats {
		if IsMissingCategory(c) {
			codes[i] = missingToken
			continue
		}
		codes[i] = strings.TrimSpace(c)
	}

	// RR is dropped here on purpose: Rain is derived from it.
	cols := make([]series.Series, 0, len(CanonicalColumns()))
	for _, name := range NumericFeatures() {
		cols = append(cols, series.New(numeric[name], series.Float, name))
	}
	cols = append(cols, series.New(codes, series.String, ColDDDCar))
	cols = append(cols, series.New(rain, series.Int, ColRain))

	out := dataframe.New(cols...)
	return out, out.Err
}

func (dc *DataCleaner) coerceNumeric(col string, s series.Series) []float64 {
	records := s.Records()
	exact := s.Type() == series.Float || s.Type() == series.Int
	var floats []float64
	if exact {
		floats = s.Float()
	}
	values := make([]float64, len(records))
	for i, rec := range records {
		var v float64
		var ok bool
		if exact {
			v = floats[i]
			ok = !math.IsNaN(v) && !math.IsInf(v, 0)
		} else {
			v, ok = parseNumber(rec)
		}
		switch {
		case !ok:
			if !IsMissingCategory(rec) {
				dc.stats.Coerced[col]++
			}
			v = math.NaN()
		case IsSentinel(v):
			dc.stats.Sentinels[col]++
			v = math.NaN()
		}
		values[i] = v
	}
	return values
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// HasColumn reports whether df has a column called name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the entries of required that df lacks, in order.
func MissingColumns(df dataframe.DataFrame, required []string) []string {
	var missing []string
	for _, col := range required {
		if !HasColumn(df, col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// CountMissing counts missing cells in a column of a cleaned table.
func CountMissing(df dataframe.DataFrame, col string) int {
	s := df.Col(col)
	n := 0
	if s.Type() == series.String {
		for _, v := range s.Records() {
			if IsMissingCategory(v) {
				n++
			}
		}
		return n
	}
	for _, v := range s.Float() {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
