// Package csvfile reads review rows from a header-addressed CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/poi-rating-map/internal/domain"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Column names, matched case-insensitively against the header.
const (
	colID       = "id"
	colName     = "name"
	colCategory = "category"
	colLat      = "lat"
	colLng      = "lng"
	colRating   = "rating"
)

// ParseError reports a cell that could not be parsed.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: column %q: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader loads review records from a CSV file.
// It implements pipeline.Extractor.
type Reader struct {
	path            string
	requireCategory bool
	logger          *slog.Logger
}

// NewReader creates a Reader for path. When requireCategory is set the file
// must carry a Category column and every record keeps its category.
func NewReader(path string, requireCategory bool, logger *slog.Logger) *Reader {
	return &Reader{path: path, requireCategory: requireCategory, logger: logger}
}

// Extract reads every record in the file.
func (r *Reader) Extract(ctx context.Context) ([]domain.Record, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	records, err := Parse(ctx, f, r.requireCategory)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	r.logger.Debug("input parsed", "path", r.path, "records", len(records))
	return records, nil
}

// Parse decodes CSV review rows from src.
func Parse(ctx context.Context, src io.Reader, requireCategory bool) ([]domain.Record, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	required := []string{colID, colName, colLat, colLng, colRating}
	if requireCategory {
		required = append(required, colCategory)
	}
	idx, err := indexColumns(header, required)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rec, err := parseRow(row, idx, line, requireCategory)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func indexColumns(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int, line int, withCategory bool) (domain.Record, error) {
	get := func(col string) string {
		return strings.TrimSpace(row[idx[col]])
	}
	number := func(col string) (float64, error) {
		v := get(col)
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, &ParseError{Line: line, Column: col, Value: v, Err: err}
		}
		return f, nil
	}

	lat, err := number(colLat)
	if err != nil {
		return domain.Record{}, err
	}
	lng, err := number(colLng)
	if err != nil {
		return domain.Record{}, err
	}
	rating, err := number(colRating)
	if err != nil {
		return domain.Record{}, err
	}

	rec := domain.Record{
		ID:     get(colID),
		Name:   get(colName),
		Lat:    lat,
		Lng:    lng,
		Rating: rating,
	}
	if withCategory {
		rec.Category = get(colCategory)
	}
	return rec, nil
}
