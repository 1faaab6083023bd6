package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wisefido-emergency/internal/models"

	"go.uber.org/zap"
)

// EmergencyCallsRepository 急救呼叫仓库。
// 呼叫在生命周期内多次变更，采用 upsert 写穿：内存仲裁状态为准，
// 数据库保留最新快照供审计和跨日统计。
type EmergencyCallsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmergencyCallsRepository 创建急救呼叫仓库
func NewEmergencyCallsRepository(db *sql.DB, logger *zap.Logger) *EmergencyCallsRepository {
	return &EmergencyCallsRepository{
		db:     db,
		logger: logger,
	}
}

// SaveCall 持久化急救呼叫（存在则整体覆盖）
func (r *EmergencyCallsRepository) SaveCall(ctx context.Context, call *models.EmergencyCall) error {
	if call == nil {
		return fmt.Errorf("call is required")
	}
	if call.ID == "" {
		return fmt.Errorf("call id is required")
	}

	payload, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to marshal emergency call: %w", err)
	}

	query := `
		INSERT INTO emergency_calls (
			call_id,
			patient_id,
			emergency_type,
			triage_level,
			status,
			initiated_at,
			payload
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (call_id) DO UPDATE SET
			status = EXCLUDED.status,
			payload = EXCLUDED.payload
	`

	_, err = r.db.ExecContext(ctx,
		query,
		call.ID,
		call.PatientID,
		call.EmergencyType,
		string(call.TriageLevel),
		string(call.Status),
		call.Timestamp,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save emergency call: %w", err)
	}

	return nil
}

// GetCall 根据 call_id 获取急救呼叫
func (r *EmergencyCallsRepository) GetCall(ctx context.Context, callID string) (*models.EmergencyCall, error) {
	if callID == "" {
		return nil, fmt.Errorf("call_id is required")
	}

	query := `
		SELECT payload
		FROM emergency_calls
		WHERE call_id = $1
	`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, callID).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: call_id=%s", models.ErrCallNotFound, callID)
		}
		return nil, fmt.Errorf("failed to get emergency call: %w", err)
	}

	var call models.EmergencyCall
	if err := json.Unmarshal(payload, &call); err != nil {
		return nil, fmt.Errorf("failed to unmarshal emergency call: %w", err)
	}

	return &call, nil
}

// ListCallsByPatient 获取患者的呼叫记录（按发起时间倒序）
func (r *EmergencyCallsRepository) ListCallsByPatient(ctx context.Context, patientID string, limit int) ([]*models.EmergencyCall, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT payload
		FROM emergency_calls
		WHERE patient_id = $1
		ORDER BY initiated_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query emergency calls: %w", err)
	}
	defer rows.Close()

	calls := []*models.EmergencyCall{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan emergency call: %w", err)
		}
		var call models.EmergencyCall
		if err := json.Unmarshal(payload, &call); err != nil {
			return nil, fmt.Errorf("failed to unmarshal emergency call: %w", err)
		}
		calls = append(calls, &call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emergency calls: %w", err)
	}

	return calls, nil
}
