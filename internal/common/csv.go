// Package common holds the typed CSV helpers shared by the writers and the
// history loader. Tables with a header row map onto structs through gocsv
// struct tags.
package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"fjacquet/txmerge/internal/logging"

	"github.com/gocarina/gocsv"
)

// ReadCSV decodes a headed table from r into rows of TCSVRow.
func ReadCSV[TCSVRow any](r io.Reader, delimiter rune) ([]TCSVRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// ReadCSVFile reads a headed CSV file into rows of TCSVRow.
func ReadCSVFile[TCSVRow any](filePath string, delimiter rune, logger logging.Logger) ([]TCSVRow, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && logger != nil {
			logger.WithError(cerr).Warn("Failed to close file", logging.F(logging.FieldFile, filePath))
		}
	}()

	rows, err := ReadCSV[TCSVRow](file, delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	if logger != nil {
		logger.Debug("Read CSV file",
			logging.F(logging.FieldFile, filePath),
			logging.F(logging.FieldCount, len(rows)))
	}
	return rows, nil
}

// MarshalCSV renders rows, header included, with the given delimiter.
func MarshalCSV[TCSVRow any](rows []TCSVRow, delimiter rune) ([]byte, error) {
	if rows == nil {
		rows = []TCSVRow{}
	}
	var buf bytes.Buffer
	csvWriter := csv.NewWriter(&buf)
	csvWriter.Comma = delimiter

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return nil, fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV data: %w", err)
	}
	return buf.Bytes(), nil
}
