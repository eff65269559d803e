// internal/repository/postgres/baseline_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
)

const baselineSchema = `
	CREATE TABLE IF NOT EXISTS baselines (
		item_id           TEXT PRIMARY KEY,
		avg_weekly_demand DOUBLE PRECISION NOT NULL,
		unit_price        DOUBLE PRECISION NOT NULL,
		safety_stock      DOUBLE PRECISION NOT NULL,
		service_level     DOUBLE PRECISION NOT NULL DEFAULT 0,
		reorder_point     DOUBLE PRECISION,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

type BaselineRepository struct {
	db *DB
}

func NewBaselineRepository(db *DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

// EnsureSchema creates the baselines table when missing.
func (r *BaselineRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, baselineSchema); err != nil {
		return fmt.Errorf("failed to create baselines table: %w", err)
	}
	return nil
}

func (r *BaselineRepository) GetBaseline(ctx context.Context, itemID string) (*domain.Baseline, error) {
	if itemID == "" {
		itemID = domain.DefaultItemID
	}

	query := `
		SELECT item_id, avg_weekly_demand, unit_price, safety_stock,
			service_level, reorder_point, updated_at
		FROM baselines
		WHERE item_id = $1
	`

	var b domain.Baseline
	if err := r.db.GetContext(ctx, &b, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("baseline %s: %w", itemID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting baseline: %w", err)
	}
	return &b, nil
}

func (r *BaselineRepository) ListBaselines(ctx context.Context) ([]domain.Baseline, error) {
	query := `
		SELECT item_id, avg_weekly_demand, unit_price, safety_stock,
			service_level, reorder_point, updated_at
		FROM baselines
		ORDER BY item_id
	`

	var baselines []domain.Baseline
	if err := r.db.SelectContext(ctx, &baselines, query); err != nil {
		return nil, fmt.Errorf("error listing baselines: %w", err)
	}
	return baselines, nil
}

// SaveBaselines upserts baselines in one transaction.
func (r *BaselineRepository) SaveBaselines(ctx context.Context, baselines []domain.Baseline) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO baselines (
				item_id, avg_weekly_demand, unit_price, safety_stock,
				service_level, reorder_point, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (item_id)
			DO UPDATE SET
				avg_weekly_demand = EXCLUDED.avg_weekly_demand,
				unit_price = EXCLUDED.unit_price,
				safety_stock = EXCLUDED.safety_stock,
				service_level = EXCLUDED.service_level,
				reorder_point = EXCLUDED.reorder_point,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, b := range baselines {
			_, err := stmt.ExecContext(
				ctx,
				b.ItemID,
				b.AvgWeeklyDemand,
				b.UnitPrice,
				b.SafetyStock,
				b.ServiceLevel,
				b.ReorderPoint,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert baseline %s: %w", b.ItemID, err)
			}
		}

		return nil
	})
}

var _ repository.BaselineRepository = (*BaselineRepository)(nil)
