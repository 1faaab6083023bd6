package models

import "time"

// LabResults 实验室检查结果（临床决策支持输入）
type LabResults struct {
	Potassium          *float64 `json:"potassium,omitempty"` // mEq/L
	CurrentMedications []string `json:"current_medications,omitempty"`
}

// TreatmentStep 治疗路径步骤
type TreatmentStep struct {
	Step       int    `json:"step"`
	Treatment  string `json:"treatment"`
	Evidence   string `json:"evidence"`
	Monitoring string `json:"monitoring"`
}

// ClinicalAlert 临床告警
type ClinicalAlert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // "high", "moderate"
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// ClinicalDecision 临床决策支持结果
type ClinicalDecision struct {
	ID                string          `json:"id"`
	PatientID         string          `json:"patient_id"`
	Timestamp         time.Time       `json:"timestamp"`
	Diagnosis         string          `json:"diagnosis"`
	VitalSigns        VitalSigns      `json:"vital_signs"`
	LabResults        *LabResults     `json:"lab_results,omitempty"`
	TreatmentPathways []TreatmentStep `json:"treatment_pathways"`
	Alerts            []ClinicalAlert `json:"alerts"`
	Guidelines        []string        `json:"guidelines"`
	EvidenceLevel     string          `json:"evidence_level"`
}
