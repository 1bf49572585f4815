package reports

import (
	"context"
	"errors"

	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

// Service holds the logic of reading shared reports
type Service struct {
	store domain.ReportStore
}

// NewService creates a report service from a ReportStore
func NewService(store domain.ReportStore) *Service {
	return &Service{
		store: store,
	}
}

// GetReport returns a report the user chose to make public.
func (s *Service) GetReport(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	if s.store == nil || id == "" {
		return nil, domain.ErrReportNotFound
	}

	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrReportNotFound) {
			observability.LoggerFromContext(ctx).Error("failed to get report", "report_id", id, "error", err)
		}
		return nil, err
	}

	// Private summaries are never stored, but guard older records anyway.
	if !report.IsPublic {
		return nil, domain.ErrReportNotFound
	}
	return report, nil
}
