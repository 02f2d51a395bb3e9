package download

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ytget/yt-queue/internal/model"
)

// exportIndent is the indentation of the JSON export
const exportIndent = "  "

// ExportState returns one flat record per item in queue order
func (s *Service) ExportState() []model.Record {
	items := s.Items()
	records := make([]model.Record, 0, len(items))
	for _, item := range items {
		records = append(records, item.ToRecord())
	}
	return records
}

// WriteExport writes the queue state as an indented JSON array. Non-ASCII
// text is written as is.
func (s *Service) WriteExport(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", exportIndent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.ExportState()); err != nil {
		return fmt.Errorf("encoding queue export: %w", err)
	}
	return nil
}

// ExportToFile writes the JSON export to path, replacing any existing file
func (s *Service) ExportToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := s.WriteExport(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	s.logger.WithField("file", path).Info("Queue state exported")
	return nil
}
