// Package report reads campaign contacts and writes campaign results as CSV.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/campaign-runner/internal/types"
)

// Input and output column names.
const (
	ColumnName       = "name"
	ColumnNumber     = "number"
	ColumnCallID     = "call_id"
	ColumnCallStatus = "call_status"
	ColumnTranscript = "transcript"
)

// OutputHeader is the fixed column order of the results file.
var OutputHeader = []string{ColumnName, ColumnNumber, ColumnCallID, ColumnCallStatus, ColumnTranscript}

const utf8BOM = "\uFEFF"

// reportMode matches what a plainly created file gets under the usual umask.
const reportMode os.FileMode = 0o644

// ReadContacts loads every contact from the CSV file at path. The header row
// must contain a "number" column; "name" is optional. Extra columns are
// ignored and values are trimmed.
func ReadContacts(path string) ([]types.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Message: "failed to open contacts file", Cause: err}
	}
	defer func() { _ = f.Close() }()

	contacts, err := ParseContacts(f)
	if err != nil {
		return nil, &InputError{Path: path, Message: "failed to parse contacts file", Cause: err}
	}
	return contacts, nil
}

// ParseContacts reads contacts from r. Contact.Index is the row position.
func ParseContacts(r io.Reader) ([]types.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	nameCol, numberCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, utf8BOM))) {
		case ColumnName:
			nameCol = i
		case ColumnNumber:
			numberCol = i
		}
	}
	if numberCol < 0 {
		return nil, fmt.Errorf("header has no %q column", ColumnNumber)
	}

	var contacts []types.Contact
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(contacts)+2, err)
		}
		contacts = append(contacts, types.Contact{
			Index:  len(contacts),
			Name:   field(row, nameCol),
			Number: field(row, numberCol),
		})
	}
	return contacts, nil
}

func field(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// WriteResults writes one row per result, plus the header, to path. The file
// is written to a temporary sibling first and renamed into place.
func WriteResults(path string, results []types.ResultRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".results-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := EncodeResults(tmp, results); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(reportMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set output file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// EncodeResults writes the header and one row per result to w.
func EncodeResults(w io.Writer, results []types.ResultRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(OutputHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range results {
		row := []string{r.Name, r.Number, r.CallID, string(r.CallStatus), r.Transcript}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write result for %s: %w", r.Name, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush results: %w", err)
	}
	return nil
}
