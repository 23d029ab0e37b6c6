package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

// Options controls how raw files become tables.
type Options struct {
	// Delimiter for CSV. If 0, sniffed among ',', ';', '\t', '|'.
	Delimiter rune
	// Sheet selects an XLSX sheet by name. Empty picks the largest sheet.
	Sheet string
	// MaxRows limits data rows kept; 0 means unlimited.
	MaxRows int
	// HeaderScan is how many leading rows are considered as header candidates.
	HeaderScan int
}

// DefaultOptions returns the stock loader options.
func DefaultOptions() Options {
	return Options{HeaderScan: 10}
}

// Loader turns the bytes of one file format into a table.
type Loader interface {
	CanLoad(filename string) bool
	Load(data []byte, opt Options) (*dataset.Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

var (
	// ErrUnsupported indicates a format is not supported.
	ErrUnsupported = errors.New("unsupported file format")
	// ErrEmpty indicates the file holds no data rows.
	ErrEmpty = errors.New("file contains no data")
)

// Supported reports whether any registered loader accepts the filename.
func Supported(filename string) bool {
	return lookup(filename) != nil
}

func lookup(filename string) Loader {
	for _, l := range registry {
		if l.CanLoad(filename) {
			return l
		}
	}
	return nil
}

// Load selects a loader by filename and parses data into a table named after
// the file's base name.
func Load(filename string, data []byte, opt Options) (*dataset.Table, error) {
	l := lookup(filename)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	t, err := l.Load(data, opt)
	if err != nil {
		return nil, err
	}
	t.Name = filepath.Base(filename)
	if t.ColCount() == 0 {
		return nil, ErrEmpty
	}
	return t, nil
}

// LoadFile reads a local path or any afs-supported URL (file://, http(s)://,
// s3://, gs://) and parses it.
func LoadFile(ctx context.Context, location string, opt Options) (*dataset.Table, error) {
	data, err := Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return Load(location, data, opt)
}

// Fetch downloads the bytes behind a location.
func Fetch(ctx context.Context, location string) ([]byte, error) {
	if !strings.Contains(location, "://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", location, err)
	}
	return data, nil
}

// build applies header detection and the row limit to raw string rows.
func build(rows [][]string, opt Options) *dataset.Table {
	if len(rows) == 0 {
		return &dataset.Table{}
	}
	h := dataset.FindHeaderRow(rows, opt.HeaderScan)
	header, body := rows[h], rows[h+1:]
	if opt.MaxRows > 0 && len(body) > opt.MaxRows {
		body = body[:opt.MaxRows]
	}
	return dataset.FromRecords("", header, body)
}
