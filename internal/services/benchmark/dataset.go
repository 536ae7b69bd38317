package benchmark

import (
	"context"
	"errors"
	"strings"
	"sync"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// ErrAlreadyLoaded is returned when Load is called on a populated dataset
var ErrAlreadyLoaded = errors.New("benchmark dataset already loaded")

// ErrNotLoaded is returned when the dataset is read before Load succeeded
var ErrNotLoaded = errors.New("benchmark dataset not loaded")

// Dataset holds the benchmark text. It is written once at startup and only
// read afterwards.
type Dataset struct {
	mu     sync.RWMutex
	text   string
	source string
	loaded bool
}

// Summary describes the dataset without validating it
type Summary struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
	Models  int      `json:"models"`
	Bytes   int      `json:"bytes"`
}

// NewDataset creates an empty dataset
func NewDataset() *Dataset {
	return &Dataset{}
}

// NewDatasetFromText creates a dataset already holding text
func NewDatasetFromText(text string) *Dataset {
	return &Dataset{text: text, source: "inline", loaded: true}
}

// Load fetches the text from src. Failures leave the dataset empty and are
// returned unchanged so startup can abort.
func (d *Dataset) Load(ctx context.Context, src Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return ErrAlreadyLoaded
	}

	text, err := src.Fetch(ctx)
	if err != nil {
		return err
	}

	d.text = text
	d.source = src.Location()
	d.loaded = true
	fiberlog.Infof("Loaded benchmark dataset from %s (%d bytes)", d.source, len(text))
	return nil
}

// Text returns the raw benchmark text
func (d *Dataset) Text() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return "", ErrNotLoaded
	}
	return d.text, nil
}

// Loaded reports whether Load has succeeded
func (d *Dataset) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Summary reads the header line and counts non-empty data rows
func (d *Dataset) Summary() (*Summary, error) {
	text, err := d.Text()
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	summary := &Summary{Source: d.source, Bytes: len(text)}
	d.mu.RUnlock()

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	header := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			for _, col := range strings.Split(line, ",") {
				summary.Columns = append(summary.Columns, strings.TrimSpace(col))
			}
			header = false
			continue
		}
		summary.Models++
	}
	return summary, nil
}
