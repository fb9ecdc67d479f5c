package service

import (
	"context"
	"time"

	"github.com/transsync/schedule-api/internal/domain"
)

// ExportService produces the full filtered schedule for download.
type ExportService struct {
	schedule *ScheduleService
	now      func() time.Time
}

// NewExportService constructs an ExportService on top of a ScheduleService.
func NewExportService(s *ScheduleService) *ExportService {
	return &ExportService{schedule: s, now: time.Now}
}

// Export returns every row matching f. Collections that failed to load are
// reported in the result rather than failing the export.
func (e *ExportService) Export(ctx context.Context, f domain.ScheduleFilter) (domain.ScheduleExport, error) {
	rows, errs, err := e.schedule.Rows(ctx, f)
	if err != nil {
		return domain.ScheduleExport{}, err
	}
	return domain.ScheduleExport{
		GeneratedAt: e.now(),
		Filter:      f,
		Rows:        rows,
		Errors:      errs,
	}, nil
}
