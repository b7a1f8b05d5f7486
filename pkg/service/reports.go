package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

const (
	topRequesters  = 5
	timelineWindow = 30 * 24 * time.Hour
)

func (s *LoanService) Stats(ctx context.Context, caller models.Caller, kind models.Kind) (models.Stats, error) {
	if err := checkReport(caller, kind); err != nil {
		return models.Stats{}, err
	}
	stats, err := s.store.Stats(ctx, kind, topRequesters)
	if err != nil {
		return models.Stats{}, fmt.Errorf("err getting stats: %w", err)
	}
	return stats, nil
}

// Timeline counts requests per UTC day over the trailing thirty days.
func (s *LoanService) Timeline(ctx context.Context, caller models.Caller, kind models.Kind) ([]models.TimelineDay, error) {
	if err := checkReport(caller, kind); err != nil {
		return nil, err
	}
	days, err := s.store.Timeline(ctx, kind, s.now().UTC().Add(-timelineWindow))
	if err != nil {
		return nil, fmt.Errorf("err getting timeline: %w", err)
	}
	return days, nil
}

func checkReport(caller models.Caller, kind models.Kind) error {
	if !caller.Role.CanReport() {
		return fmt.Errorf("%w: reports are restricted to staff", models.ErrForbidden)
	}
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("%w: unknown request kind %q", models.ErrValidation, kind)
	}
	return nil
}
