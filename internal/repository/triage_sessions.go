package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wisefido-emergency/internal/models"

	"go.uber.org/zap"
)

// TriageSessionsRepository 分诊会话仓库。
// 会话不可变：只插入，不更新。完整会话以 JSONB 载荷落地，
// 常用查询维度（患者、等级、时间）提升为标量列。
type TriageSessionsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTriageSessionsRepository 创建分诊会话仓库
func NewTriageSessionsRepository(db *sql.DB, logger *zap.Logger) *TriageSessionsRepository {
	return &TriageSessionsRepository{
		db:     db,
		logger: logger,
	}
}

// SaveSession 持久化分诊会话
func (r *TriageSessionsRepository) SaveSession(ctx context.Context, session *models.TriageSession) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	if session.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal triage session: %w", err)
	}

	query := `
		INSERT INTO triage_sessions (
			session_id,
			patient_id,
			triage_level,
			risk_score,
			requires_immediate_action,
			created_at,
			payload
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err = r.db.ExecContext(ctx,
		query,
		session.SessionID,
		session.PatientID,
		string(session.TriageLevel),
		session.RiskScore,
		session.RequiresImmediateAction,
		session.Timestamp,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save triage session: %w", err)
	}

	return nil
}

// GetSession 根据 session_id 获取分诊会话
func (r *TriageSessionsRepository) GetSession(ctx context.Context, sessionID string) (*models.TriageSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	query := `
		SELECT payload
		FROM triage_sessions
		WHERE session_id = $1
	`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: session_id=%s", models.ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to get triage session: %w", err)
	}

	var session models.TriageSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal triage session: %w", err)
	}

	return &session, nil
}

// ListSessionsByPatient 获取患者的分诊会话（按时间倒序）
func (r *TriageSessionsRepository) ListSessionsByPatient(ctx context.Context, patientID string, limit int) ([]*models.TriageSession, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT payload
		FROM triage_sessions
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query triage sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.TriageSession{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan triage session: %w", err)
		}
		var session models.TriageSession
		if err := json.Unmarshal(payload, &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal triage session: %w", err)
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate triage sessions: %w", err)
	}

	return sessions, nil
}
