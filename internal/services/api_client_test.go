package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data.csv", r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("Model,Retrieval\nm1,50\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	var text string
	err := client.Get(context.Background(), "/data.csv", &text, &RequestOptions{ResponseType: "text"})
	require.NoError(t, err)
	assert.Equal(t, "Model,Retrieval\nm1,50\n", text)
}

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"x"}`, string(body))
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	var result struct {
		OK bool `json:"ok"`
	}
	err := client.Post(context.Background(), "", map[string]string{"name": "x"}, &result, &RequestOptions{
		QueryParams: map[string]string{"key": "k"},
	})
	require.NoError(t, err)
	assert.True(t, result.OK)
}

func TestClient_StatusErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Get(context.Background(), "/", nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "overloaded", statusErr.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_TextResultTypeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	var wrong int
	err := NewClient(server.URL).Get(context.Background(), "/", &wrong, &RequestOptions{ResponseType: "text"})
	assert.ErrorContains(t, err, "result must be *string")
}
