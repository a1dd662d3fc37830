package pipeline

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var compassCodes = []string{"N", "S", "E", "W", "C", "NE", "NW", "SE", "SW"}

// GenerateWeatherRows builds n synthetic raw observations starting on
// 2025-01-01, one per day.
func GenerateWeatherRows(n int, seed int64) dataframe.DataFrame {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	cols := map[string][]string{}
	for _, name := range RawColumns() {
		cols[name] = make([]string, n)
	}
	for i := 0; i < n; i++ {
		tn := round1(normal(rng, 24, 2))
		tx := tn + normal(rng, 6, 1.5)
		tavg := (tn + tx) / 2
		rh := math.Round(clip(normal(rng, 85, 5), 50, 100))
		rr := round1(rng.ExpFloat64() * 3.0)
		ss := round1(clip(normal(rng, 5, 2), 0, 12))
		ffx := round1(clip(normal(rng, 5, 2), 0, 15))
		dddx := rng.Intn(360)
		ffavg := round1(ffx * (0.3 + rng.Float64()*0.4))

		cols[ColDate][i] = start.AddDate(0, 0, i).Format(DateLayout)
		cols[ColTN][i] = formatFloat(tn)
		cols[ColTX][i] = formatFloat(tx)
		cols[ColTAVG][i] = formatFloat(tavg)
		cols[ColRHAvg][i] = formatFloat(rh)
		cols[ColRR][i] = formatFloat(rr)
		cols[ColSS][i] = formatFloat(ss)
		cols[ColFFX][i] = formatFloat(ffx)
		cols[ColDDDX][i] = strconv.Itoa(dddx)
		cols[ColFFAvg][i] = formatFloat(ffavg)
		cols[ColDDDCar][i] = compassCodes[rng.Intn(len(compassCodes))]
	}

	list := make([]series.Series, 0, len(RawColumns()))
	for _, name := range RawColumns() {
		list = append(list, series.New(cols[name], series.String, name))
	}
	return dataframe.New(list...)
}

// ExtractData writes a synthetic train/test split as train.csv and test.csv
// under dir.
func ExtractData(dir string, trainSize, testSize int, seed int64) (trainPath, testPath string, err error) {
	if trainSize <= 0 || testSize <= 0 {
		return "", "", errors.New("train and test sizes must be positive")
	}
	df := GenerateWeatherRows(trainSize+testSize, seed)
	if df.Err != nil {
		return "", "", df.Err
	}
	trainIdx := make([]int, trainSize)
	for i := range trainIdx {
		trainIdx[i] = i
	}
	testIdx := make([]int, testSize)
	for i := range testIdx {
		testIdx[i] = trainSize + i
	}

	trainPath = filepath.Join(dir, "train.csv")
	testPath = filepath.Join(dir, "test.csv")
	if err := SaveCSV(trainPath, df.Subset(trainIdx)); err != nil {
		return "", "", err
	}
	if err := SaveCSV(testPath, df.Subset(testIdx)); err != nil {
		return "", "", err
	}
	return trainPath, testPath, nil
}

func normal(rng *rand.Rand, mean, std float64) float64 {
	return mean + std*rng.NormFloat64()
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
