package selection

import (
	"encoding/json"
	"io"
	"os"

	"github.com/YuminosukeSato/selgo/pkg/errors"
)

// ExportResultsWriter writes the record log to w as an indented JSON
// array, one object per round with the keys featureSize, score and
// features.
func (s *search) ExportResultsWriter(w io.Writer) error {
	if !s.state.IsFitted() {
		return errors.NewNotFittedError(s.op, "ExportResults")
	}

	records := s.records
	if records == nil {
		records = []RoundRecord{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return errors.Wrap(err, s.op+".ExportResults: failed to encode records")
	}
	return nil
}

// ExportResults writes the record log to the named file, creating or
// truncating it.
func (s *search) ExportResults(filename string) error {
	if !s.state.IsFitted() {
		return errors.NewNotFittedError(s.op, "ExportResults")
	}

	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, s.op+".ExportResults: failed to create file")
	}
	defer f.Close()

	return s.ExportResultsWriter(f)
}

// LoadRecords reads a record log previously written by ExportResults
func LoadRecords(r io.Reader) ([]RoundRecord, error) {
	var records []RoundRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "LoadRecords: failed to decode records")
	}
	return records, nil
}

// LoadRecordsFile reads a record log from the named file
func LoadRecordsFile(filename string) ([]RoundRecord, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "LoadRecordsFile: failed to open file")
	}
	defer f.Close()

	return LoadRecords(f)
}
