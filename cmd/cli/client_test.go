package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useServer(t *testing.T, token string, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	prevURL, prevToken := apiURL, authToken
	apiURL, authToken, httpClient = srv.URL, token, nil
	t.Cleanup(func() {
		apiURL, authToken, httpClient = prevURL, prevToken, nil
	})
}

func TestAPIRequestSendsAuthAndBody(t *testing.T) {
	useServer(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/lightbox/s1/next", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, 2, in["index"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current_index":2}`))
	})

	var out struct {
		CurrentIndex int `json:"current_index"`
	}
	body, err := apiRequest(http.MethodPost, "/api/v1/lightbox/s1/next", map[string]int{"index": 2}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, out.CurrentIndex)
	assert.JSONEq(t, `{"current_index":2}`, string(body))
}

func TestAPIRequestWithoutToken(t *testing.T) {
	useServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	_, err := apiRequest(http.MethodGet, "/api/v1/gallery", nil, nil)
	require.NoError(t, err)
}

func TestAPIRequestDecodesErrorBody(t *testing.T) {
	useServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"TIER_LOCKED","message":"upgrade required"}`))
	})

	_, err := apiRequest(http.MethodGet, "/api/v1/gallery/x", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "API error (TIER_LOCKED): upgrade required", err.Error())
}

func TestAPIRequestFallsBackToStatus(t *testing.T) {
	useServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	})

	_, err := apiRequest(http.MethodGet, "/api/v1/gallery", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "API error: status 502", err.Error())
}

func TestAPIRequestRejectsMalformedBody(t *testing.T) {
	useServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	var out map[string]interface{}
	_, err := apiRequest(http.MethodGet, "/api/v1/gallery", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}
