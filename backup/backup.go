// Package backup exports saved session profiles to a YAML document and
// imports them back. Exports are self-describing (id, timestamp, version)
// so a host can tell backup files apart in its UI.
package backup

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/plaunch/plaunch-core/logger"
	"github.com/plaunch/plaunch-core/session"
)

// formatVersion is bumped when the backup document shape changes.
const formatVersion = 1

// Record is one exported profile.
type Record struct {
	Name        string `yaml:"name"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Protocol    string `yaml:"protocol"`
	CloseOnExit string `yaml:"close_on_exit"`
}

// File is the backup document.
type File struct {
	Version    int       `yaml:"version"`
	ExportID   string    `yaml:"export_id"`
	ExportedAt time.Time `yaml:"exported_at"`
	Sessions   []Record  `yaml:"sessions"`
}

// Skipped describes one import entry that was not applied.
type Skipped struct {
	Name   string
	Reason string
}

// ImportReport summarizes an import: how many records were written and
// which entries were skipped, with reasons suitable for display.
type ImportReport struct {
	Imported int
	Skipped  []Skipped
}

// toRecord converts a stored session for export.
func toRecord(s session.Session) Record {
	return Record{
		Name:        s.Name,
		Host:        s.Host,
		Port:        s.Port,
		Protocol:    string(s.Protocol),
		CloseOnExit: string(s.CloseOnExit),
	}
}

// toSession parses an imported record back into a validated session.
func (r Record) toSession() (session.Session, error) {
	proto, err := session.ParseProtocol(r.Protocol)
	if err != nil {
		return session.Session{}, err
	}
	closeOnExit, err := session.ParseCloseOnExit(r.CloseOnExit)
	if err != nil {
		return session.Session{}, err
	}

	s := session.Session{
		Name:        r.Name,
		Host:        r.Host,
		Port:        r.Port,
		Protocol:    proto,
		CloseOnExit: closeOnExit,
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

// Export writes every saved session to w as a YAML document and returns the
// number of exported records.
func Export(ctx context.Context, store *session.Store, w io.Writer) (int, error) {
	log := logger.WithComponent("backup")

	refs := store.List(ctx)
	records := make([]Record, 0, len(refs))
	for _, ref := range refs {
		records = append(records, toRecord(store.Read(ctx, ref.Name)))
	}

	doc := File{
		Version:    formatVersion,
		ExportID:   uuid.New().String(),
		ExportedAt: time.Now().UTC(),
		Sessions:   records,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to encode backup: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return 0, fmt.Errorf("failed to write backup: %w", err)
	}

	log.Info("sessions exported", "export_id", doc.ExportID, "count", len(records))
	return len(records), nil
}

// Import reads a backup document from r and writes each valid record.
// Invalid entries are skipped, not fatal; they are listed in the report.
// A document that cannot be parsed at all is an error.
func Import(ctx context.Context, store *session.Store, r io.Reader) (*ImportReport, error) {
	log := logger.WithComponent("backup")

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	var doc File
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	if doc.Version > formatVersion {
		return nil, fmt.Errorf("backup version %d is newer than supported version %d", doc.Version, formatVersion)
	}

	report := &ImportReport{}
	for _, rec := range doc.Sessions {
		s, err := rec.toSession()
		if err != nil {
			log.Warn("skipping invalid backup entry", "name", rec.Name, "error", err)
			report.Skipped = append(report.Skipped, Skipped{Name: rec.Name, Reason: err.Error()})
			continue
		}
		if err := store.Write(ctx, s); err != nil {
			log.Warn("failed to write imported session", "name", rec.Name, "error", err)
			report.Skipped = append(report.Skipped, Skipped{Name: rec.Name, Reason: err.Error()})
			continue
		}
		report.Imported++
	}

	log.Info("sessions imported",
		"export_id", doc.ExportID,
		"imported", report.Imported,
		"skipped", len(report.Skipped))
	return report, nil
}
