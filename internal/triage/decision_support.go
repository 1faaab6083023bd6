package triage

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-emergency/internal/models"
)

// treatmentPathwayTable 诊断 → 治疗路径（静态配置表，无算法深度）
var treatmentPathwayTable = map[string][]models.TreatmentStep{
	"ipertensione": {
		{Step: 1, Treatment: "ACE-inibitore (Ramipril 2.5-5mg/die)", Evidence: "Linee Guida SIAP 2024", Monitoring: "PA settimanale, creatinina a 1 mese"},
		{Step: 2, Treatment: "Aggiungere calcio-antagonista se non controllata", Evidence: "Linee Guida ESC/ESH", Monitoring: "PA giornaliera, ECG annuale"},
	},
	"diabete": {
		{Step: 1, Treatment: "Metformina 500-1000mg/die", Evidence: "Linee Guida AMD-SID 2024", Monitoring: "HbA1c a 3 mesi, microalbuminuria annuale"},
		{Step: 2, Treatment: "Aggiungere SGLT2-inibitore se alto rischio CV", Evidence: "Linee Guida ESC/EASD", Monitoring: "Glicemia capillare, funzionalita renale"},
	},
	"scompenso": {
		{Step: 1, Treatment: "Diuretico dell'ansa (Furosemide)", Evidence: "Linee Guida ANMCO 2023", Monitoring: "Peso giornaliero, diuresi"},
		{Step: 2, Treatment: "Terapia con ACE-inibitore + beta-bloccante", Evidence: "Linee Guida ESC", Monitoring: "Funzionalita renale, ECG, ecocardiogramma"},
	},
}

// 英文诊断别名 → 表键
var diagnosisAliases = map[string]string{
	"hypertension":  "ipertensione",
	"diabetes":      "diabete",
	"heart failure": "scompenso",
}

// guidelineTable 诊断 → 指南引用
var guidelineTable = map[string][]string{
	"ipertensione": {
		"Linee Guida SIAP 2024 per il trattamento dell'ipertensione",
		"Linee Guida ESC/ESH 2023",
		"Documento di consenso SIIA 2024",
	},
	"diabete": {
		"Standard Italiani per la cura del diabete mellito 2024",
		"Linee Guida AMD-SID 2024",
		"Position Statement AMD 2023",
	},
	"scompenso": {
		"Linee Guida ANMCO 2023 per lo scompenso cardiaco",
		"Linee Guida ESC 2023",
		"Raccomandazioni SIGOT 2024",
	},
}

// evidenceLevelTable 诊断 → 证据等级
var evidenceLevelTable = map[string]string{
	"ipertensione": "A (Raccomandazione forte)",
	"diabete":      "A (Raccomandazione forte)",
	"scompenso":    "B (Raccomandazione moderata)",
}

// 临床告警阈值
const (
	hypertensiveCrisisSBP = 180
	bradycardiaHR         = 50
	hyperkalemiaK         = 5.5
)

// DecisionSupport 临床决策支持：静态表查询生成治疗路径、告警与指南引用。
// 纯函数式查表，无副作用。
type DecisionSupport struct {
	logger *zap.Logger
}

// NewDecisionSupport 创建临床决策支持
func NewDecisionSupport(logger *zap.Logger) *DecisionSupport {
	return &DecisionSupport{logger: logger}
}

// Evaluate 为医生生成临床决策支持结果
func (d *DecisionSupport) Evaluate(patientID, diagnosis string, vitals models.VitalSigns, labs *models.LabResults) *models.ClinicalDecision {
	key := diagnosisKey(diagnosis)

	decision := &models.ClinicalDecision{
		ID:                uuid.New().String(),
		PatientID:         patientID,
		Timestamp:         time.Now(),
		Diagnosis:         diagnosis,
		VitalSigns:        vitals,
		LabResults:        labs,
		TreatmentPathways: append([]models.TreatmentStep(nil), treatmentPathwayTable[key]...),
		Alerts:            buildClinicalAlerts(vitals, labs),
		Guidelines:        lookupGuidelines(key),
		EvidenceLevel:     lookupEvidenceLevel(key),
	}

	d.logger.Info("Clinical decision support evaluated",
		zap.String("decision_id", decision.ID),
		zap.String("patient_id", patientID),
		zap.String("diagnosis", diagnosis),
		zap.Int("alert_count", len(decision.Alerts)),
	)

	return decision
}

func diagnosisKey(diagnosis string) string {
	lowered := strings.ToLower(diagnosis)
	for key := range treatmentPathwayTable {
		if strings.Contains(lowered, key) {
			return key
		}
	}
	for alias, key := range diagnosisAliases {
		if strings.Contains(lowered, alias) {
			return key
		}
	}
	return ""
}

func buildClinicalAlerts(vitals models.VitalSigns, labs *models.LabResults) []models.ClinicalAlert {
	alerts := make([]models.ClinicalAlert, 0)

	if vitals.SystolicBP != nil && *vitals.SystolicBP > hypertensiveCrisisSBP {
		alerts = append(alerts, models.ClinicalAlert{
			Type:     "CRISI_IPERTENSIVA",
			Severity: "high",
			Message:  "Pressione arteriosa > 180 mmHg - Richiede intervento immediato",
			Action:   "Considerare terapia antipertensiva ev",
		})
	}
	if vitals.HeartRate != nil && *vitals.HeartRate < bradycardiaHR {
		alerts = append(alerts, models.ClinicalAlert{
			Type:     "BRADICARDIA",
			Severity: "moderate",
			Message:  "Frequenza cardiaca < 50 bpm",
			Action:   "Valutare ECG e cause di bradicardia",
		})
	}
	if labs != nil && labs.Potassium != nil && *labs.Potassium > hyperkalemiaK {
		alerts = append(alerts, models.ClinicalAlert{
			Type:     "IPERKALIEMIA",
			Severity: "high",
			Message:  "Potassio > 5.5 mEq/L - Rischio aritmie",
			Action:   "Sospendere ACE-inibitori, valutare terapia",
		})
	}

	return alerts
}

func lookupGuidelines(key string) []string {
	if refs, ok := guidelineTable[key]; ok {
		return append([]string(nil), refs...)
	}
	return []string{"Linee Guida Nazionali Italiane"}
}

func lookupEvidenceLevel(key string) string {
	if level, ok := evidenceLevelTable[key]; ok {
		return level
	}
	return "C (Consenso di esperti)"
}
