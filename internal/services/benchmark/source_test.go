package benchmark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Model,Retrieval,Classification,Clustering,Reranking,STS,Multilingual,Max_Tokens,Parameters,Dimensions\n" +
	"bge-m3,54.6,70.1,45.2,58.9,80.3,Yes,8192,568M,1024\n" +
	"all-MiniLM-L6-v2,41.9,63.1,42.4,58.0,78.9,No,512,23M,384\n"

func TestHTTPSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/benchmark_data.csv", 0)
	text, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, text)
	assert.Equal(t, server.URL+"/benchmark_data.csv", src.Location())
}

func TestHTTPSource_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, 0).Fetch(context.Background())

	var statusErr *services.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestFileSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmark.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	text, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, text)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name     string
		cfg      models.BenchmarkConfig
		wantType any
		wantErr  bool
	}{
		{name: "https url", cfg: models.BenchmarkConfig{URL: "https://example.com/data.csv"}, wantType: &HTTPSource{}},
		{name: "file url", cfg: models.BenchmarkConfig{URL: "file:///tmp/data.csv"}, wantType: &FileSource{}},
		{name: "file path", cfg: models.BenchmarkConfig{FilePath: "data.csv"}, wantType: &FileSource{}},
		{name: "url wins", cfg: models.BenchmarkConfig{URL: "http://example.com", FilePath: "data.csv"}, wantType: &HTTPSource{}},
		{name: "default", cfg: models.BenchmarkConfig{}, wantType: &HTTPSource{}},
		{name: "bad scheme", cfg: models.BenchmarkConfig{URL: "ftp://example.com/data.csv"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, src)
		})
	}
}
