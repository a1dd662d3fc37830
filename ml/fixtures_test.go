package ml

import (
	"rainpredict/config"
	"rainpredict/pipeline"
)

// balancedRows returns 12 observations, six rainy and six dry. Humidity,
// sunshine and maximum temperature separate the classes; the remaining
// columns do not.
func balancedRows() ([]pipeline.Features, []int) {
	codes := []string{"N", "S", "E", "W", "NE", "SW"}
	rows := make([]pipeline.Features, 0, 12)
	labels := make([]int, 0, 12)
	for i := 0; i < 6; i++ {
		f := float64(i)
		rows = append(rows, pipeline.Features{
			TN: 22 + f*0.3, TX: 27 + f*0.2, TAVG: 24.5 + f*0.2, RHAvg: 92 + f*0.5,
			SS: 0.5 + f*0.2, FFX: 4 + f, DDDX: 90 + 30*f, FFAvg: 2 + f*0.3,
			Month: 1 + f, Day: 10 + f, DDDCar: codes[i],
		})
		labels = append(labels, 1)
		rows = append(rows, pipeline.Features{
			TN: 22.1 + f*0.3, TX: 33 + f*0.2, TAVG: 27.5 + f*0.2, RHAvg: 65 + f*0.5,
			SS: 8 + f*0.2, FFX: 4.5 + f, DDDX: 100 + 30*f, FFAvg: 2.1 + f*0.3,
			Month: 1 + f, Day: 11 + f, DDDCar: codes[5-i],
		})
		labels = append(labels, 0)
	}
	return rows, labels
}

func toMatrix(rows []pipeline.Features) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Numeric()
	}
	return out
}

func modelConfig(name string, params map[string]interface{}, storePath string) config.ModelConfig {
	if params == nil {
		params = map[string]interface{}{}
	}
	return config.ModelConfig{
		Name:      name,
		Params:    params,
		StorePath: storePath,
		Seed:      42,
		Version:   1,
	}
}
