package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
)

type ExportData struct {
	Run     RunMetadata `json:"run"`
	Records []Record    `json:"frames"`
}

// ExportJSON writes a run and all of its frames as one JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: *meta, Records: records})
}

// ExportCSV copies a run's frames in stored column order.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	records, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(formatRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
