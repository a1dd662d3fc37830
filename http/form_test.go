package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rainyForm() url.Values {
	return url.Values{
		"TANGGAL": {"14-12-2025"},
		"TN":      {"22"},
		"TX":      {"27"},
		"TAVG":    {"24.5"},
		"RH_AVG":  {"92"},
		"SS":      {"0.5"},
		"FF_X":    {"4"},
		"DDD_X":   {"90"},
		"FF_AVG":  {"2"},
		"DDD_CAR": {"N"},
	}
}

func postForm(env *testEnv, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ui", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return env.do(req)
}

func TestFormPage(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(httptest.NewRequest(http.MethodGet, "/ui", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `value="14-12-2025"`)
	assert.Contains(t, body, "Dominant wind direction")
	assert.NotContains(t, body, "Prediction:")
}

func TestFormSubmit(t *testing.T) {
	env := newTestEnv(t)
	rr := postForm(env, rainyForm())

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Prediction: <b>Rain</b>")
	assert.Contains(t, body, "Class 0 (No Rain)")
	assert.Contains(t, body, "<td>12</td>")
	// submitted values are echoed back
	assert.Contains(t, body, `value="92"`)
}

func TestFormSubmit_Errors(t *testing.T) {
	env := newTestEnv(t)

	values := rainyForm()
	values.Set("TN", "abc")
	rr := postForm(env, values)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "TN must be a number")

	for _, v := range []string{"NaN", "Inf", "+Inf", "-inf"} {
		values = rainyForm()
		values.Set("RH_AVG", v)
		rr = postForm(env, values)
		assert.Equal(t, http.StatusBadRequest, rr.Code, v)
		assert.Contains(t, rr.Body.String(), "RH_AVG must be a number", v)
	}

	values = rainyForm()
	values.Set("TANGGAL", "2025-12-14")
	rr = postForm(env, values)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid date. Use DD-MM-YYYY")
}
