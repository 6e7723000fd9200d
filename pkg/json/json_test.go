package json

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	var body struct {
		Text string `json:"text"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hello"}`))
	require.NoError(t, ParseJSON(r, &body))
	require.Equal(t, "hello", body.Text)

	r = httptest.NewRequest(http.MethodPost, "/", nil)
	require.EqualError(t, ParseJSON(r, &body), "missing request body")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":`))
	require.Error(t, ParseJSON(r, &body))
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusConflict, errors.New("busy"))

	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"busy"}`, w.Body.String())
}
