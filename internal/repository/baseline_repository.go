// internal/repository/baseline_repository.go
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/storage"
)

type fileBaselineRepository struct {
	store storage.ObjectStorage
	key   string
}

// NewFileBaselineRepository reads baselines from a single results file. The
// file holds either one baseline object or an array of them.
func NewFileBaselineRepository(store storage.ObjectStorage, key string) BaselineRepository {
	return &fileBaselineRepository{store: store, key: key}
}

func (r *fileBaselineRepository) GetBaseline(ctx context.Context, itemID string) (*domain.Baseline, error) {
	if itemID == "" {
		itemID = domain.DefaultItemID
	}

	baselines, err := r.ListBaselines(ctx)
	if err != nil {
		return nil, err
	}
	for i := range baselines {
		if baselines[i].ItemID == itemID {
			return &baselines[i], nil
		}
	}
	return nil, fmt.Errorf("baseline %s: %w", itemID, ErrNotFound)
}

func (r *fileBaselineRepository) ListBaselines(ctx context.Context) ([]domain.Baseline, error) {
	data, err := r.store.GetObject(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("baseline file %s: %w", r.key, ErrNotFound)
		}
		return nil, fmt.Errorf("error reading baseline file: %w", err)
	}
	return ParseBaselines(data)
}

// ParseBaselines decodes a results file. Records without an item id are
// assigned domain.DefaultItemID.
func ParseBaselines(data []byte) ([]domain.Baseline, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty baseline file: %w", ErrInvalidData)
	}

	var baselines []domain.Baseline
	if data[0] == '[' {
		if err := json.Unmarshal(data, &baselines); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
	} else {
		var b domain.Baseline
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		baselines = []domain.Baseline{b}
	}

	for i := range baselines {
		if baselines[i].ItemID == "" {
			baselines[i].ItemID = domain.DefaultItemID
		}
		if baselines[i].SafetyStock < 0 || baselines[i].AvgWeeklyDemand < 0 || baselines[i].UnitPrice < 0 {
			return nil, fmt.Errorf("baseline %s has negative values: %w", baselines[i].ItemID, ErrInvalidData)
		}
	}
	return baselines, nil
}
