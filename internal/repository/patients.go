package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wisefido-emergency/internal/models"

	"go.uber.org/zap"
)

// PatientsRepository 患者目录仓库（只读：目录由院方主数据系统维护）
type PatientsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPatientsRepository 创建患者目录仓库
func NewPatientsRepository(db *sql.DB, logger *zap.Logger) *PatientsRepository {
	return &PatientsRepository{
		db:     db,
		logger: logger,
	}
}

// GetPatient 根据 patient_id 获取患者快照
func (r *PatientsRepository) GetPatient(ctx context.Context, patientID string) (*models.PatientSnapshot, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT
			patient_id,
			nome,
			cognome,
			codice_fiscale,
			chronic_conditions
		FROM patients
		WHERE patient_id = $1
	`

	var patient models.PatientSnapshot
	var codiceFiscale sql.NullString
	var chronicConditions []byte

	err := r.db.QueryRowContext(ctx, query, patientID).Scan(
		&patient.PatientID,
		&patient.FirstName,
		&patient.LastName,
		&codiceFiscale,
		&chronicConditions,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: patient_id=%s", models.ErrPatientNotFound, patientID)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if codiceFiscale.Valid {
		patient.CodiceFiscale = codiceFiscale.String
	}
	if len(chronicConditions) > 0 {
		if err := json.Unmarshal(chronicConditions, &patient.ChronicConditions); err != nil {
			r.logger.Warn("Failed to parse chronic conditions",
				zap.String("patient_id", patientID),
				zap.Error(err),
			)
			patient.ChronicConditions = nil
		}
	}

	return &patient, nil
}
