package triage

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-emergency/internal/models"
)

// 置信度计算参数
const (
	baseConfidence      = 0.70
	symptomConfidence   = 0.05
	maxSymptomBonus     = 0.15
	vitalConfidence     = 0.03
	maxConfidence       = 0.95
)

// 体征硬阈值（任一突破直接判红色，优先于风险分值）
const (
	criticalSpO2Below = 85
	criticalHRAbove   = 140
	criticalHRBelow   = 40
	criticalSBPAbove  = 200
	criticalSBPBelow  = 80
)

// criticalSymptoms 危急症状集合（出现即判红色）
var criticalSymptoms = map[string]bool{
	"loss_of_consciousness": true,
	"seizure":               true,
	"severe_bleeding":       true,
}

// 风险分值分级阈值
const (
	redScoreThreshold    = 80
	yellowScoreThreshold = 60
	greenScoreThreshold  = 30
)

// Classifier 分诊分类器：覆盖规则 + 风险分值 → 离散分诊等级
type Classifier struct {
	scorer          *RiskScorer
	recommendations *RecommendationEngine
	logger          *zap.Logger
}

// NewClassifier 创建分诊分类器
func NewClassifier(scorer *RiskScorer, logger *zap.Logger) *Classifier {
	return &Classifier{
		scorer:          scorer,
		recommendations: NewRecommendationEngine(),
		logger:          logger,
	}
}

// PerformTriage 执行分诊，返回不可变的分诊会话。
// 输入为空（无症状、无体征、无病史）时以白色等级和基础置信度恢复，从不失败。
func (c *Classifier) PerformTriage(patientID string, symptoms []string, vitals models.VitalSigns, history []string) *models.TriageSession {
	now := time.Now()

	if len(symptoms) == 0 && vitals.PresentCount() == 0 && len(history) == 0 {
		c.logger.Warn("Triage input empty, falling back to white code",
			zap.String("patient_id", patientID),
		)
		return c.buildSession(patientID, now, symptoms, vitals, history, 0, models.CodiceBianco, baseConfidence)
	}

	riskScore := c.scorer.Score(symptoms, vitals, history)
	level := c.determineLevel(riskScore, vitals, symptoms)
	confidence := calculateConfidence(symptoms, vitals)

	session := c.buildSession(patientID, now, symptoms, vitals, history, riskScore, level, confidence)

	c.logger.Info("Triage performed",
		zap.String("session_id", session.SessionID),
		zap.String("patient_id", patientID),
		zap.Float64("risk_score", riskScore),
		zap.String("triage_level", string(level)),
		zap.Float64("confidence", confidence),
	)

	return session
}

// determineLevel 决定分诊等级。判定顺序（首个命中生效）：
// 1. 危急症状 → 红色
// 2. 体征硬阈值突破 → 红色（仅检查已提供的体征）
// 3. 按风险分值分级
func (c *Classifier) determineLevel(riskScore float64, vitals models.VitalSigns, symptoms []string) models.TriageLevel {
	for _, s := range symptoms {
		if criticalSymptoms[s] {
			return models.CodiceRosso
		}
	}

	if vitals.OxygenSaturation != nil && *vitals.OxygenSaturation < criticalSpO2Below {
		return models.CodiceRosso
	}
	if vitals.HeartRate != nil && (*vitals.HeartRate > criticalHRAbove || *vitals.HeartRate < criticalHRBelow) {
		return models.CodiceRosso
	}
	if vitals.SystolicBP != nil && (*vitals.SystolicBP > criticalSBPAbove || *vitals.SystolicBP < criticalSBPBelow) {
		return models.CodiceRosso
	}

	switch {
	case riskScore >= redScoreThreshold:
		return models.CodiceRosso
	case riskScore >= yellowScoreThreshold:
		return models.CodiceGiallo
	case riskScore >= greenScoreThreshold:
		return models.CodiceVerde
	default:
		return models.CodiceBianco
	}
}

func (c *Classifier) buildSession(patientID string, ts time.Time, symptoms []string, vitals models.VitalSigns, history []string, riskScore float64, level models.TriageLevel, confidence float64) *models.TriageSession {
	return &models.TriageSession{
		SessionID:               uuid.New().String(),
		PatientID:               patientID,
		Timestamp:               ts,
		Symptoms:                append([]string(nil), symptoms...),
		VitalSigns:              vitals,
		MedicalHistory:          append([]string(nil), history...),
		RiskScore:               riskScore,
		TriageLevel:             level,
		TriageDetails:           level.Info(),
		Recommendations:         c.recommendations.Recommend(level, symptoms, vitals, history),
		Confidence:              confidence,
		RequiresImmediateAction: level == models.CodiceRosso || level == models.CodiceGiallo,
	}
}

// calculateConfidence 置信度 = 基础值 + 症状数量加成（封顶）+ 体征完整度加成，上限 0.95
func calculateConfidence(symptoms []string, vitals models.VitalSigns) float64 {
	confidence := baseConfidence

	symptomBonus := float64(len(symptoms)) * symptomConfidence
	if symptomBonus > maxSymptomBonus {
		symptomBonus = maxSymptomBonus
	}
	confidence += symptomBonus

	confidence += float64(vitals.PresentCount()) * vitalConfidence

	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence
}
