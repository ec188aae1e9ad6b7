package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithBaseURL_Invalid(t *testing.T) {
	_, err := NewWithBaseURL("not a url", 0)
	assert.Error(t, err)
}

func TestDoJSON_RelativePathRequiresBaseURL(t *testing.T) {
	err := New(0).DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoBaseURL)
}

func TestDoJSON_DecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "default", r.Header.Get("X-Client"))
		assert.Equal(t, "/send", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL+"/", 0)
	require.NoError(t, err)
	c.Headers = map[string]string{"X-Client": "default"}

	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, "send", map[string]string{"X-Api-Key": "k"}, map[string]string{"a": "b"}, &out))
	assert.Equal(t, "queued", out.Status)
}

func TestDoJSON_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(0).DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "nope", httpErr.Body)
}
