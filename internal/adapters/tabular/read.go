// Package tabular reads and writes the flat CSV tables the batch consumes
// and produces.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/drought/internal/domain/model"
)

// TotalsSuffix marks per-location monthly totals files.
const TotalsSuffix = "_totals.csv"

// LocationFromFilename derives a location name from a totals file name:
// the suffix is dropped and underscores become spaces.
func LocationFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), TotalsSuffix)
	return strings.ReplaceAll(base, "_", " ")
}

// FilenameForLocation is the inverse of LocationFromFilename.
func FilenameForLocation(location string) string {
	return strings.ReplaceAll(location, " ", "_") + TotalsSuffix
}

// header maps column names to indices.
type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty input: %w", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w: %w", ErrMalformed, err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("%q: %w", name, ErrMissingColumn)
		}
	}
	return h, nil
}

func (h header) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// ReadTotals parses a Year,Month,Total table for one location. Blank
// totals are skipped.
func ReadTotals(r io.Reader, location string) ([]model.Record, error) {
	cr := newReader(r)
	h, err := readHeader(cr, "year", "month", "total")
	if err != nil {
		return nil, err
	}

	var out []model.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ErrMalformed, err)
		}

		totalStr := h.get(row, "total")
		if totalStr == "" {
			continue
		}
		year, err := strconv.Atoi(h.get(row, "year"))
		if err != nil {
			return nil, fmt.Errorf("line %d: year: %w", line, ErrMalformed)
		}
		month, err := model.ParseMonth(h.get(row, "month"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ErrMalformed)
		}
		total, err := strconv.ParseFloat(totalStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: total %q: %w", line, totalStr, ErrMalformed)
		}
		out = append(out, model.Record{Location: location, Year: year, Month: month, Total: total})
	}
	return out, nil
}

// ReadTotalsFile reads one totals file, naming the location after the file.
func ReadTotalsFile(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := ReadTotals(f, LocationFromFilename(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return recs, nil
}

// ReadTotalsDir reads every *_totals.csv file in dir in name order.
func ReadTotalsDir(dir string) ([]model.Record, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+TotalsSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []model.Record
	for _, p := range paths {
		recs, err := ReadTotalsFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ReadParams parses a table written by WriteParams.
func ReadParams(r io.Reader) ([]model.FittedParams, error) {
	cr := newReader(r)
	h, err := readHeader(cr, "location", "month", "timescale", "alpha", "beta")
	if err != nil {
		return nil, err
	}

	var out []model.FittedParams
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ErrMalformed, err)
		}

		month, err := model.ParseMonth(h.get(row, "month"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ErrMalformed)
		}
		ts, err := strconv.Atoi(h.get(row, "timescale"))
		if err != nil {
			return nil, fmt.Errorf("line %d: timescale: %w", line, ErrMalformed)
		}
		var vals [3]float64
		for i, col := range []string{"alpha", "loc", "beta"} {
			s := h.get(row, col)
			if s == "" && col == "loc" {
				vals[i] = model.FitLoc
				continue
			}
			if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d: %s %q: %w", line, col, s, ErrMalformed)
			}
		}
		out = append(out, model.FittedParams{
			Key:    model.Key{Location: h.get(row, "location"), Month: month, Timescale: ts},
			Params: model.GammaParams{Alpha: vals[0], Loc: vals[1], Beta: vals[2]},
		})
	}
	return out, nil
}

// ReadParamsFile reads a params table from disk.
func ReadParamsFile(path string) ([]model.FittedParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadParams(f)
}
