// Package audit appends and queries the immutable event log. Writes from
// request handling go through Track, which never fails the caller.
package audit

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/dmitrijs2005/babypal/internal/server/metrics"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/logs"
	"github.com/xuri/excelize/v2"
)

// Recorder writes audit rows. It is safe for concurrent use.
type Recorder struct {
	repo    logs.Repository
	log     logging.Logger
	metrics *metrics.Metrics
}

// NewRecorder builds a Recorder. m may be nil.
func NewRecorder(repo logs.Repository, l logging.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{repo: repo, log: l.With("module", "audit"), metrics: m}
}

// Record appends e and returns the stored row.
func (r *Recorder) Record(ctx context.Context, e Event) (*models.Log, error) {
	row, err := r.repo.Create(ctx, &models.Log{
		Username:   e.Username,
		Type:       e.Type,
		TypeID:     e.TypeID,
		Action:     e.Action,
		StatusCode: e.StatusCode,
	})
	if err != nil {
		if r.metrics != nil {
			r.metrics.AuditFailuresTotal.WithLabelValues(e.Type).Inc()
		}
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.AuditEventsTotal.WithLabelValues(e.Type, e.Action).Inc()
	}
	return row, nil
}

// Track records e after the primary write has already succeeded. A failure
// is logged and counted, then dropped.
func (r *Recorder) Track(ctx context.Context, e Event) {
	if _, err := r.Record(ctx, e); err != nil {
		r.log.Warn(ctx, "audit write failed",
			"type", e.Type, "action", e.Action, "username", e.Username, "error", err)
	}
}

// List returns all rows ordered by creation time.
func (r *Recorder) List(ctx context.Context) ([]*models.Log, error) {
	return r.repo.List(ctx)
}

func (r *Recorder) Get(ctx context.Context, id int64) (*models.Log, error) {
	return r.repo.GetByID(ctx, id)
}

const exportSheet = "Logs"

var exportHeaders = []string{"ID", "Username", "Type", "Type ID", "Action", "Status", "Created At"}

// Export writes every row to w as an xlsx workbook.
func (r *Recorder) Export(ctx context.Context, w io.Writer) error {
	rows, err := r.repo.List(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	for i, l := range rows {
		typeID := ""
		if l.TypeID != nil {
			typeID = strconv.FormatInt(*l.TypeID, 10)
		}
		cell := fmt.Sprintf("A%d", i+2)
		values := []any{l.ID, l.Username, l.Type, typeID, l.Action, l.StatusCode, l.CreatedAt.UTC().Format("2006-01-02 15:04:05")}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}

	_ = f.SetColWidth(exportSheet, "B", "B", 20)
	_ = f.SetColWidth(exportSheet, "E", "E", 28)
	_ = f.SetColWidth(exportSheet, "G", "G", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
