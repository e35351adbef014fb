// Package sensordb loads the camera sensor database and resolves physical
// sensor widths by brand and model.
package sensordb

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Entry is one sensor database record.
type Entry struct {
	Brand   string
	Model   string
	WidthMM float64
}

// Database is an in-memory sensor width index keyed by brand and model,
// both compared case-insensitively.
type Database struct {
	entries map[string]Entry
}

func key(brand, model string) string {
	return strings.ToLower(strings.TrimSpace(brand)) + ";" + strings.ToLower(strings.TrimSpace(model))
}

// Load reads a sensor database file. Each record is "brand;model;width_mm";
// lines starting with '#' are comments. Extra fields after the width are
// ignored.
func Load(path string) (*Database, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open sensor database %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	db, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse sensor database %q", path)
	}
	return db, nil
}

// Parse reads sensor database records from r.
func Parse(r io.Reader) (*Database, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	db := &Database{entries: map[string]Entry{}}
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "malformed sensor database record")
		}
		if len(record) < 3 {
			return nil, errors.Errorf("sensor database record %d has %d fields, want at least 3", line, len(record))
		}
		brand := strings.TrimSpace(record[0])
		model := strings.TrimSpace(record[1])
		width, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "sensor database record %d (%s %s) has invalid width", line, brand, model)
		}
		if brand == "" || model == "" {
			continue
		}
		// first record wins on duplicates
		k := key(brand, model)
		if _, ok := db.entries[k]; !ok {
			db.entries[k] = Entry{Brand: brand, Model: model, WidthMM: width}
		}
	}
	return db, nil
}

// Lookup returns the entry for the given brand and model, matched
// case-insensitively.
func (db *Database) Lookup(brand, model string) (Entry, bool) {
	if db == nil {
		return Entry{}, false
	}
	entry, ok := db.entries[key(brand, model)]
	return entry, ok
}

// Len returns the number of distinct entries loaded.
func (db *Database) Len() int {
	if db == nil {
		return 0
	}
	return len(db.entries)
}
