package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

// ReportStore is a simple in-memory implementation of domain.ReportStore.
// It is NOT persistent and is only suitable for development / local mode.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[domain.ReportID]*domain.Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[domain.ReportID]*domain.Report),
	}
}

// SaveReport stores a report. If no ID is provided, one is generated.
func (s *ReportStore) SaveReport(_ context.Context, report *domain.Report) error {
	if report == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = domain.ReportID(uuid.NewString())
	}

	stored := *report
	stored.Summary = report.Summary.Clone()
	s.reports[report.ID] = &stored
	return nil
}

func (s *ReportStore) GetReport(_ context.Context, id domain.ReportID) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	out := *r
	out.Summary = r.Summary.Clone()
	return &out, nil
}
