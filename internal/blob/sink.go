// Package blob turns finished snapshots into report files on any
// domain.BlobWriter.
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// DefaultReportPath is where the report file lands relative to the writer root.
const DefaultReportPath = "data/spreads.json"

// ReportSink writes the report section of each snapshot as indented JSON.
type ReportSink struct {
	name   string
	writer domain.BlobWriter
	path   string
}

// NewReportSink creates a sink named name writing to path on w.
func NewReportSink(name string, w domain.BlobWriter, path string) *ReportSink {
	if path == "" {
		path = DefaultReportPath
	}
	return &ReportSink{name: name, writer: w, path: path}
}

func (s *ReportSink) Name() string { return s.name }

// Store encodes snap.Report with four-space indentation and writes it.
func (s *ReportSink) Store(ctx context.Context, snap domain.Snapshot) error {
	raw, err := EncodeReport(snap.Report)
	if err != nil {
		return err
	}
	if err := s.writer.Put(ctx, s.path, bytes.NewReader(raw), "application/json"); err != nil {
		return fmt.Errorf("blob: %s: %w", s.name, err)
	}
	return nil
}

// EncodeReport renders r the way the report file is published.
func EncodeReport(r domain.Report) ([]byte, error) {
	raw, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("blob: encode report: %w", err)
	}
	return append(raw, '\n'), nil
}

var _ domain.ReportSink = (*ReportSink)(nil)
