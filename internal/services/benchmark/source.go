package benchmark

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services"
)

const defaultFetchTimeout = 30 * time.Second

// Source fetches the benchmark dataset as UTF-8 text
type Source interface {
	Fetch(ctx context.Context) (string, error)
	Location() string
}

// HTTPSource downloads the dataset with a single GET request
type HTTPSource struct {
	url     string
	client  *services.Client
	timeout time.Duration
}

// NewHTTPSource creates a source for the given URL
func NewHTTPSource(rawURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	client := services.NewClient("")
	delete(client.Headers, "Content-Type")
	client.Headers["Accept"] = "text/csv, text/plain, */*"
	return &HTTPSource{url: rawURL, client: client, timeout: timeout}
}

// Fetch downloads the dataset. Any non-2xx status is returned as an error.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	var text string
	err := s.client.Get(ctx, s.url, &text, &services.RequestOptions{
		ResponseType: "text",
		Timeout:      s.timeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch benchmark from %s: %w", s.url, err)
	}
	return text, nil
}

func (s *HTTPSource) Location() string {
	return s.url
}

// FileSource reads the dataset from a local file
type FileSource struct {
	path string
}

// NewFileSource creates a source for a local path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Fetch reads the whole file
func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path) // #nosec G304 - path comes from operator configuration
	if err != nil {
		return "", fmt.Errorf("failed to read benchmark file %s: %w", s.path, err)
	}
	return string(data), nil
}

func (s *FileSource) Location() string {
	return s.path
}

// NewSource picks a source from configuration. URLs win over file paths and
// file:// URLs are read from disk.
func NewSource(cfg models.BenchmarkConfig) (Source, error) {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond

	switch {
	case cfg.URL != "":
		parsed, err := url.Parse(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid benchmark url %q: %w", cfg.URL, err)
		}
		switch strings.ToLower(parsed.Scheme) {
		case "file":
			return NewFileSource(parsed.Path), nil
		case "http", "https":
			return NewHTTPSource(cfg.URL, timeout), nil
		default:
			return nil, fmt.Errorf("unsupported benchmark url scheme %q", parsed.Scheme)
		}
	case cfg.FilePath != "":
		return NewFileSource(cfg.FilePath), nil
	default:
		return NewHTTPSource(models.DefaultBenchmarkURL, timeout), nil
	}
}
