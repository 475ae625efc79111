// Package export copies the per-ward results to a Google Sheet on a schedule.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/rskariadi-dev/manrura/internal/metrics"
)

// Source is the read side of the repository the export needs.
type Source interface {
	GetAllWards() ([]domain.Ward, error)
	GetAllAssessments() (domain.AllAssessments, error)
	GetAllAssessmentPeriods() ([]domain.AssessmentPeriod, error)
}

type PointCatalog interface {
	PointIDs() []string
}

// Writer replaces the content of a sheet range.
type Writer interface {
	Write(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

type SheetsWriter struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheetsWriter(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsWriter, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsWriter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (w *SheetsWriter) Write(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	_, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, sheetRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear range: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.Update(w.spreadsheetID, sheetRange,
		&sheets.ValueRange{Values: rows}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update range: %w", err)
	}
	return nil
}

var header = []interface{}{"Ward ID", "Ward", "Points", "Staff scored", "Validated", "Staff total", "Assessor total", "Achievement %"}

// BuildRows renders the export: a status line, a header and one row per ward.
func BuildRows(pointIDs []string, wards []domain.Ward, all domain.AllAssessments, periods []domain.AssessmentPeriod, now time.Time) [][]interface{} {
	status := "No active assessment period"
	if p, ok := assessment.ActivePeriod(periods, now); ok {
		status = fmt.Sprintf("Active period: %s (%s to %s)", p.Name, p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly))
	}

	rows := [][]interface{}{
		{fmt.Sprintf("Updated %s", now.Format("2 January 2006 15:04")), status},
		header,
	}
	for _, s := range assessment.Summarize(pointIDs, wards, all) {
		rows = append(rows, []interface{}{
			s.WardID, s.WardName, s.Points, s.StaffScored, s.Validated, s.StaffTotal, s.AssessorTotal,
			fmt.Sprintf("%.1f", s.Achievement),
		})
	}
	return rows
}

type Exporter struct {
	source    Source
	writer    Writer
	points    PointCatalog
	sheetName string
	clock     func() time.Time
	logger    *slog.Logger
}

func NewExporter(source Source, writer Writer, points PointCatalog, sheetName string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		source:    source,
		writer:    writer,
		points:    points,
		sheetName: sheetName,
		clock:     time.Now,
		logger:    logger,
	}
}

func (e *Exporter) Export(ctx context.Context) error {
	err := e.export(ctx)
	if err != nil {
		metrics.ExportRuns.WithLabelValues("failure").Inc()
		return err
	}
	metrics.ExportRuns.WithLabelValues("success").Inc()
	return nil
}

func (e *Exporter) export(ctx context.Context) error {
	wards, err := e.source.GetAllWards()
	if err != nil {
		return err
	}
	all, err := e.source.GetAllAssessments()
	if err != nil {
		return err
	}
	periods, err := e.source.GetAllAssessmentPeriods()
	if err != nil {
		return err
	}

	rows := BuildRows(e.points.PointIDs(), wards, all, periods, e.clock())
	return e.writer.Write(ctx, fmt.Sprintf("%s!A1", e.sheetName), rows)
}

// Schedule runs the export on the cron expression until the returned scheduler is stopped.
func Schedule(e *Exporter, cronExpr string, timeout time.Duration) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)

	_, err := scheduler.Cron(cronExpr).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := e.Export(ctx); err != nil {
			e.logger.Error("export failed", "error", err)
			return
		}
		e.logger.Info("export finished")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule export: %w", err)
	}

	scheduler.StartAsync()
	return scheduler, nil
}
