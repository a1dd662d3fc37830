package http

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"rainpredict/pipeline"
)

// formField is one input on the prediction form.
type formField struct {
	Name        string
	Value       string
	Description string
	Numeric     bool
}

type formResult struct {
	Label    string
	Rain     bool
	Proba    []probaView
	Features []featureView
}

type probaView struct {
	Class   int
	Label   string
	Value   string
	Percent float64
}

type featureView struct {
	Name  string
	Value string
}

type formPage struct {
	Fields []formField
	Result *formResult
	Error  string
}

// Descriptions shown in the sidebar and as input hints.
var fieldInfo = []struct{ name, description, defaultValue string }{
	{pipeline.ColDate, "Observation date (DD-MM-YYYY). Month and Day are derived from it.", "14-12-2025"},
	{pipeline.ColTN, "Daily minimum temperature (°C).", "0.11"},
	{pipeline.ColTX, "Daily maximum temperature (°C).", "0.01"},
	{pipeline.ColTAVG, "Daily average temperature (°C).", "12.00"},
	{pipeline.ColRHAvg, "Daily average relative humidity (%).", "0.05"},
	{pipeline.ColSS, "Sunshine duration (hours).", "0.00"},
	{pipeline.ColFFX, "Maximum wind speed.", "2.08"},
	{pipeline.ColDDDX, "Wind direction at maximum speed (degrees 0-360).", "0.09"},
	{pipeline.ColFFAvg, "Average wind speed.", "0.05"},
	{pipeline.ColDDDCar, "Dominant wind direction (compass code: N, NE, E, SE, S, SW, W, NW).", "N"},
}

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Rain Prediction</title>
<style>
body { font-family: sans-serif; display: flex; gap: 2rem; margin: 2rem; }
aside { max-width: 20rem; font-size: 0.9rem; }
form { display: grid; grid-template-columns: repeat(3, 1fr); gap: 0.75rem; }
label { display: flex; flex-direction: column; font-weight: bold; }
.error { color: #b00020; }
.rain { color: #8a5a00; }
.dry { color: #1b6e20; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.5rem; }
</style>
</head>
<body>
<aside>
<h2>Variables</h2>
<dl>
{{range .Fields}}<dt>{{.Name}}</dt><dd>{{.Description}}</dd>
{{end}}</dl>
</aside>
<main>
<h1>Rain / No Rain Prediction</h1>
<p>Enter the weather observation and press <b>Predict</b>.</p>
<form method="post" action="/ui">
{{range .Fields}}<label>{{.Name}}<input name="{{.Name}}" value="{{.Value}}" title="{{.Description}}"{{if .Numeric}} inputmode="decimal"{{end}}></label>
{{end}}<button type="submit">Predict</button>
</form>
{{with .Error}}<p class="error">{{.}}</p>{{end}}
{{with .Result}}
<h2>Result</h2>
<p class="{{if .Rain}}rain{{else}}dry{{end}}">Prediction: <b>{{.Label}}</b></p>
<p>Probabilities:</p>
<ul>
{{range .Proba}}<li>Class {{.Class}} ({{.Label}}): {{.Value}} <progress max="100" value="{{.Percent}}"></progress></li>
{{end}}</ul>
<details>
<summary>Features sent to the model</summary>
<table>
<tr>{{range .Features}}<th>{{.Name}}</th>{{end}}</tr>
<tr>{{range .Features}}<td>{{.Value}}</td>{{end}}</tr>
</table>
</details>
{{end}}
</main>
</body>
</html>
`))

func defaultFields() []formField {
	fields := make([]formField, len(fieldInfo))
	for i, info := range fieldInfo {
		fields[i] = formField{
			Name:        info.name,
			Value:       info.defaultValue,
			Description: info.description,
			Numeric:     info.name != pipeline.ColDate && info.name != pipeline.ColDDDCar,
		}
	}
	return fields
}

func (h *handler) handleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, http.StatusOK, formPage{Fields: defaultFields()})
}

func (h *handler) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.observeError(sourceUI, "decode")
		h.renderForm(w, http.StatusBadRequest, formPage{Fields: defaultFields(), Error: "Could not read the submitted form."})
		return
	}

	fields := defaultFields()
	for i := range fields {
		fields[i].Value = strings.TrimSpace(r.PostForm.Get(fields[i].Name))
	}
	page := formPage{Fields: fields}

	rec, err := formRecord(fields)
	if err != nil {
		h.observeError(sourceUI, "decode")
		page.Error = err.Error()
		h.renderForm(w, http.StatusBadRequest, page)
		return
	}

	prediction, err := h.predict(r.Context(), sourceUI, rec)
	if err != nil {
		var dateErr *pipeline.DateFormatError
		if errors.As(err, &dateErr) {
			page.Error = "Invalid date. Use DD-MM-YYYY (for example 14-12-2025)."
			h.renderForm(w, http.StatusBadRequest, page)
			return
		}
		page.Error = "An error occurred while predicting. Please try again."
		h.renderForm(w, http.StatusInternalServerError, page)
		return
	}

	result := &formResult{
		Label: h.label(prediction.Class),
		Rain:  prediction.Class == 1,
	}
	for class, p := range prediction.Probabilities {
		result.Proba = append(result.Proba, probaView{
			Class:   class,
			Label:   h.label(class),
			Value:   strconv.FormatFloat(p, 'f', 3, 64),
			Percent: math.Round(p * 100),
		})
	}
	row := prediction.Features
	for i, name := range pipeline.NumericFeatures() {
		result.Features = append(result.Features, featureView{Name: name, Value: strconv.FormatFloat(row.Numeric()[i], 'g', -1, 64)})
	}
	result.Features = append(result.Features, featureView{Name: pipeline.ColDDDCar, Value: row.DDDCar})
	page.Result = result
	h.renderForm(w, http.StatusOK, page)
}

// formRecord converts submitted form values into a serving record. Numeric
// fields must parse; the date is validated later by the feature contract.
func formRecord(fields []formField) (pipeline.Record, error) {
	values := make(map[string]float64, len(fields))
	var rec pipeline.Record
	for _, f := range fields {
		switch f.Name {
		case pipeline.ColDate:
			rec.TANGGAL = f.Value
		case pipeline.ColDDDCar:
			rec.DDDCar = f.Value
		default:
			v, err := strconv.ParseFloat(f.Value, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return pipeline.Record{}, fmt.Errorf("%s must be a number", f.Name)
			}
			values[f.Name] = v
		}
	}
	rec.TN = values[pipeline.ColTN]
	rec.TX = values[pipeline.ColTX]
	rec.TAVG = values[pipeline.ColTAVG]
	rec.RHAvg = values[pipeline.ColRHAvg]
	rec.SS = values[pipeline.ColSS]
	rec.FFX = values[pipeline.ColFFX]
	rec.DDDX = values[pipeline.ColDDDX]
	rec.FFAvg = values[pipeline.ColFFAvg]
	return rec, nil
}

func (h *handler) renderForm(w http.ResponseWriter, status int, page formPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, page); err != nil {
		h.deps.Logger.Error("render form", zap.Error(err))
	}
}
