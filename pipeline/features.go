package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// SchemaVersion identifies the feature layout below. Bump it whenever a
// column is added, removed, renamed or reordered so persisted models built
// against an older layout are rejected at load time.
const SchemaVersion = 1

// DateLayout is the DD-MM-YYYY layout used by TANGGAL in both training data
// and serving requests.
const DateLayout = "02-01-2006"

// Column names
const (
	ColDate      = "TANGGAL"
	ColTN        = "TN"
	ColTX        = "TX"
	ColTAVG      = "TAVG"
	ColRHAvg     = "RH_AVG"
	ColRR        = "RR"
	ColSS        = "SS"
	ColFFX       = "FF_X"
	ColDDDX      = "DDD_X"
	ColFFAvg     = "FF_AVG"
	ColDDDCar    = "DDD_CAR"
	ColMonth     = "Month"
	ColDay       = "Day"
	ColRain      = "Rain"
	missingToken = "NaN"
)

// SentinelValues are placeholders the source data uses for missing readings.
var SentinelValues = []float64{8888, 9999}

// NumericFeatures returns the numeric feature columns in model order.
func NumericFeatures() []string {
	return []string{ColTN, ColTX, ColTAVG, ColRHAvg, ColSS, ColFFX, ColDDDX, ColFFAvg, ColMonth, ColDay}
}

// CategoricalFeatures returns the categorical feature columns in model order.
func CategoricalFeatures() []string {
	return []string{ColDDDCar}
}

// FeatureNames returns every feature column in model order.
func FeatureNames() []string {
	return append(NumericFeatures(), CategoricalFeatures()...)
}

// CanonicalColumns returns the cleaned table layout: features then label.
func CanonicalColumns() []string {
	return append(FeatureNames(), ColRain)
}

// RawColumns returns the columns a raw observation CSV must carry.
func RawColumns() []string {
	return []string{ColDate, ColTN, ColTX, ColTAVG, ColRHAvg, ColRR, ColSS, ColFFX, ColDDDX, ColFFAvg, ColDDDCar}
}

// Features is one cleaned feature row. Missing numeric readings are NaN and a
// missing wind direction code is the empty string.
type Features struct {
	TN     float64 `json:"TN"`
	TX     float64 `json:"TX"`
	TAVG   float64 `json:"TAVG"`
	RHAvg  float64 `json:"RH_AVG"`
	SS     float64 `json:"SS"`
	FFX    float64 `json:"FF_X"`
	DDDX   float64 `json:"DDD_X"`
	FFAvg  float64 `json:"FF_AVG"`
	Month  float64 `json:"Month"`
	Day    float64 `json:"Day"`
	DDDCar string  `json:"DDD_CAR"`
}

// Numeric returns the numeric values in NumericFeatures order.
func (f Features) Numeric() []float64 {
	return []float64{f.TN, f.TX, f.TAVG, f.RHAvg, f.SS, f.FFX, f.DDDX, f.FFAvg, f.Month, f.Day}
}

// Categorical returns the categorical values in CategoricalFeatures order.
func (f Features) Categorical() []string {
	return []string{f.DDDCar}
}

// Record is a single observation as submitted to a serving front-end.
type Record struct {
	TANGGAL string  `json:"TANGGAL"`
	TN      float64 `json:"TN"`
	TX      float64 `json:"TX"`
	TAVG    float64 `json:"TAVG"`
	RHAvg   float64 `json:"RH_AVG"`
	SS      float64 `json:"SS"`
	FFX     float64 `json:"FF_X"`
	DDDX    float64 `json:"DDD_X"`
	FFAvg   float64 `json:"FF_AVG"`
	DDDCar  string  `json:"DDD_CAR"`
}

// DateFormatError reports a TANGGAL value that does not match DateLayout.
type DateFormatError struct {
	Value string
	Err   error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("TANGGAL %q must use the DD-MM-YYYY format", e.Value)
}

func (e *DateFormatError) Unwrap() error {
	return e.Err
}

// SchemaError reports required columns absent from a table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("input data missing required columns: [%s]", strings.Join(e.Missing, ", "))
}

// ParseDate parses a TANGGAL string strictly.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &DateFormatError{Value: value, Err: err}
	}
	return t, nil
}

// MonthDay derives the Month and Day features from a TANGGAL string. Both are
// NaN when the date cannot be parsed.
func MonthDay(value string) (month, day float64, ok bool) {
	t, err := ParseDate(value)
	if err != nil {
		return math.NaN(), math.NaN(), false
	}
	return float64(t.Month()), float64(t.Day()), true
}

// BuildFeatures turns a serving record into a feature row using the same date
// derivation and sentinel handling as the cleaner. An unparseable date is a
// *DateFormatError.
func BuildFeatures(r Record) (Features, error) {
	if _, err := ParseDate(r.TANGGAL); err != nil {
		return Features{}, err
	}
	month, day, _ := MonthDay(r.TANGGAL)
	return Features{
		TN:     MaskSentinel(r.TN),
		TX:     MaskSentinel(r.TX),
		TAVG:   MaskSentinel(r.TAVG),
		RHAvg:  MaskSentinel(r.RHAvg),
		SS:     MaskSentinel(r.SS),
		FFX:    MaskSentinel(r.FFX),
		DDDX:   MaskSentinel(r.DDDX),
		FFAvg:  MaskSentinel(r.FFAvg),
		Month:  month,
		Day:    day,
		DDDCar: normalizeCategory(r.DDDCar),
	}, nil
}

// IsSentinel reports whether v is one of SentinelValues.
func IsSentinel(v float64) bool {
	for _, s := range SentinelValues {
		if v == s {
			return true
		}
	}
	return false
}

// MaskSentinel returns NaN for sentinel and non-finite values, v otherwise.
func MaskSentinel(v float64) float64 {
	if IsSentinel(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// IsMissingCategory reports whether a categorical cell should be treated as
// missing.
func IsMissingCategory(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "NA", "NaN", "nan", "<nil>":
		return true
	}
	return false
}

func normalizeCategory(v string) string {
	if IsMissingCategory(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

// Rows converts a table carrying every FeatureNames column into typed rows.
// Extra columns are ignored; cells that do not parse become missing.
func Rows(df dataframe.DataFrame) ([]Features, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	if missing := MissingColumns(df, FeatureNames()); len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	numeric := make([][]float64, 0, len(NumericFeatures()))
	for _, col := range NumericFeatures() {
		numeric = append(numeric, columnFloats(df.Col(col)))
	}
	cats := df.Col(ColDDDCar).Records()

	rows := make([]Features, df.Nrow())
	for i := range rows {
		vals := make([]float64, len(numeric))
		for j := range numeric {
			vals[j] = numeric[j][i]
		}
		rows[i] = Features{
			TN: vals[0], TX: vals[1], TAVG: vals[2], RHAvg: vals[3], SS: vals[4],
			FFX: vals[5], DDDX: vals[6], FFAvg: vals[7], Month: vals[8], Day: vals[9],
			DDDCar: normalizeCategory(cats[i]),
		}
	}
	return rows, nil
}

// columnFloats reads a column as floats. Float and Int columns keep their
// exact values; string columns are parsed cell by cell.
func columnFloats(s series.Series) []float64 {
	if s.Type() == series.Float || s.Type() == series.Int {
		return s.Float()
	}
	records := s.Records()
	out := make([]float64, len(records))
	for i, rec := range records {
		out[i], _ = parseNumber(rec)
	}
	return out
}

// Labels reads the Rain column as 0/1 labels. Missing or non-positive cells
// are 0.
func Labels(df dataframe.DataFrame) ([]int, error) {
	if !HasColumn(df, ColRain) {
		return nil, &SchemaError{Missing: []string{ColRain}}
	}
	records := df.Col(ColRain).Records()
	labels := make([]int, len(records))
	for i, rec := range records {
		if v, ok := parseNumber(rec); ok && v > 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// SplitFeatureTarget separates a cleaned table into its feature columns and
// the label, which must be the last column.
func SplitFeatureTarget(df dataframe.DataFrame) (dataframe.DataFrame, []int, error) {
	if df.Err != nil {
		return dataframe.DataFrame{}, nil, df.Err
	}
	names := df.Names()
	if len(names) == 0 || names[len(names)-1] != ColRain {
		return dataframe.DataFrame{}, nil, &SchemaError{Missing: []string{ColRain}}
	}
	labels, err := Labels(df)
	if err != nil {
		return dataframe.DataFrame{}, nil, err
	}
	x := df.Select(names[:len(names)-1])
	return x, labels, x.Err
}

// Frame builds a single-table view of feature rows in model column order.
func Frame(rows []Features) dataframe.DataFrame {
	numeric := make([][]float64, len(NumericFeatures()))
	for j := range numeric {
		numeric[j] = make([]float64, len(rows))
	}
	cats := make([]string, len(rows))
	for i, r := range rows {
		for j, v := range r.Numeric() {
			numeric[j][i] = v
		}
		cats[i] = r.DDDCar
		if cats[i] == "" {
			cats[i] = missingToken
		}
	}
	cols := make([]series.Series, 0, len(FeatureNames()))
	for j, name := range NumericFeatures() {
		cols = append(cols, series.New(numeric[j], series.Float, name))
	}
	cols = append(cols, series.New(cats, series.String, ColDDDCar))
	return dataframe.New(cols...)
}
