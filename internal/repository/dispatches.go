package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wisefido-emergency/internal/models"

	"go.uber.org/zap"
)

// DispatchesRepository 救护车调度仓库（upsert 写穿，同急救呼叫仓库）
type DispatchesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDispatchesRepository 创建调度仓库
func NewDispatchesRepository(db *sql.DB, logger *zap.Logger) *DispatchesRepository {
	return &DispatchesRepository{
		db:     db,
		logger: logger,
	}
}

// SaveDispatch 持久化调度记录（存在则整体覆盖）
func (r *DispatchesRepository) SaveDispatch(ctx context.Context, d *models.Dispatch) error {
	if d == nil {
		return fmt.Errorf("dispatch is required")
	}
	if d.ID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch: %w", err)
	}

	query := `
		INSERT INTO dispatches (
			dispatch_id,
			emergency_call_id,
			ambulance_id,
			status,
			dispatched_at,
			payload
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (dispatch_id) DO UPDATE SET
			status = EXCLUDED.status,
			payload = EXCLUDED.payload
	`

	_, err = r.db.ExecContext(ctx,
		query,
		d.ID,
		d.EmergencyCallID,
		d.AmbulanceID,
		string(d.Status),
		d.DispatchTime,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save dispatch: %w", err)
	}

	return nil
}

// GetDispatch 根据 dispatch_id 获取调度记录
func (r *DispatchesRepository) GetDispatch(ctx context.Context, dispatchID string) (*models.Dispatch, error) {
	if dispatchID == "" {
		return nil, fmt.Errorf("dispatch_id is required")
	}

	query := `
		SELECT payload
		FROM dispatches
		WHERE dispatch_id = $1
	`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, dispatchID).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: dispatch_id=%s", models.ErrDispatchNotFound, dispatchID)
		}
		return nil, fmt.Errorf("failed to get dispatch: %w", err)
	}

	var d models.Dispatch
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dispatch: %w", err)
	}

	return &d, nil
}

// ListDispatchesByAmbulance 获取救护车的调度历史（按调度时间倒序）
func (r *DispatchesRepository) ListDispatchesByAmbulance(ctx context.Context, ambulanceID string, limit int) ([]*models.Dispatch, error) {
	if ambulanceID == "" {
		return nil, fmt.Errorf("ambulance_id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT payload
		FROM dispatches
		WHERE ambulance_id = $1
		ORDER BY dispatched_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, ambulanceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatches: %w", err)
	}
	defer rows.Close()

	dispatches := []*models.Dispatch{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		var d models.Dispatch
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dispatch: %w", err)
		}
		dispatches = append(dispatches, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispatches: %w", err)
	}

	return dispatches, nil
}
