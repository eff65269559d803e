// internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/andresuchdata/replenish/internal/domain"
)

var (
	// ErrNotFound is returned when no baseline or forecast exists for the key.
	ErrNotFound = errors.New("not found")

	// ErrInvalidData is returned when a stored file cannot be parsed.
	ErrInvalidData = errors.New("invalid data")
)

type BaselineRepository interface {
	GetBaseline(ctx context.Context, itemID string) (*domain.Baseline, error)
	ListBaselines(ctx context.Context) ([]domain.Baseline, error)
}

type ForecastRepository interface {
	GetForecast(ctx context.Context, ref string) ([]domain.ForecastPoint, error)
}
