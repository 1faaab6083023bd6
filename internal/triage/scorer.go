package triage

import (
	"math"
	"strings"

	"wisefido-emergency/internal/models"
)

// 体征归一化常量与缺失默认值
const (
	defaultHeartRate  = 70
	defaultSystolicBP = 120
	defaultSpO2       = 98
	defaultTemp       = 36.5

	heartRateScale  = 200
	systolicBPScale = 200
	spo2Scale       = 100
	tempScale       = 40
)

// symptomRiskEntry 症状风险条目（顺序即特征向量槽位顺序）
type symptomRiskEntry struct {
	Symptom string
	Weight  int // 0-100 严重度权重
}

// symptomRiskTable 症状风险表（静态只读）
var symptomRiskTable = []symptomRiskEntry{
	{"chest_pain", 95},
	{"difficulty_breathing", 90},
	{"severe_headache", 75},
	{"loss_of_consciousness", 100},
	{"seizure", 95},
	{"severe_bleeding", 95},
	{"abdominal_pain", 50},
	{"fever", 40},
	{"cough", 30},
	{"fatigue", 20},
	{"nausea", 25},
	{"vomiting", 35},
	{"dizziness", 45},
	{"palpitations", 60},
}

// topSymptomCount 进入特征向量的头部症状数量
const topSymptomCount = 10

// chronicRiskFactors 病史中跟踪的慢性风险因素关键词（顺序即槽位顺序）
var chronicRiskFactors = []string{"diabetes", "hypertension", "heart_disease", "copd", "cancer"}

// SymptomWeight 查询症状严重度权重，未知症状返回 0
func SymptomWeight(symptom string) int {
	for _, e := range symptomRiskTable {
		if e.Symptom == symptom {
			return e.Weight
		}
	}
	return 0
}

// RiskPredictor 风险预测策略接口（特征向量 → 0..1 风险概率）。
// 生产实现为透明的均值评分函数；真实分类模型可在不改动调用方的前提下替换。
type RiskPredictor interface {
	PredictRisk(features []float64) float64
}

// MeanVectorPredictor 均值评分预测器（特征向量各分量均值）
type MeanVectorPredictor struct{}

// PredictRisk 返回特征向量均值，限制在 [0, 1]
func (MeanVectorPredictor) PredictRisk(features []float64) float64 {
	if len(features) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range features {
		sum += f
	}
	p := sum / float64(len(features))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// RiskScorer 风险评分器：症状/体征/病史 → 有界风险分值
type RiskScorer struct {
	predictor RiskPredictor
}

// NewRiskScorer 创建风险评分器
func NewRiskScorer(predictor RiskPredictor) *RiskScorer {
	if predictor == nil {
		predictor = MeanVectorPredictor{}
	}
	return &RiskScorer{predictor: predictor}
}

// ExtractFeatures 构建定长特征向量：
// 头部症状 one-hot 槽位 + 四个归一化体征槽位 + 慢性风险因素槽位
func (s *RiskScorer) ExtractFeatures(symptoms []string, vitals models.VitalSigns, history []string) []float64 {
	features := make([]float64, 0, topSymptomCount+4+len(chronicRiskFactors))

	present := make(map[string]bool, len(symptoms))
	for _, sym := range symptoms {
		present[sym] = true
	}
	for _, entry := range symptomRiskTable[:topSymptomCount] {
		if present[entry.Symptom] {
			features = append(features, 1.0)
		} else {
			features = append(features, 0.0)
		}
	}

	features = append(features, vitalOrDefault(vitals.HeartRate, defaultHeartRate)/heartRateScale)
	features = append(features, vitalOrDefault(vitals.SystolicBP, defaultSystolicBP)/systolicBPScale)
	features = append(features, vitalOrDefault(vitals.OxygenSaturation, defaultSpO2)/spo2Scale)
	features = append(features, vitalOrDefault(vitals.Temperature, defaultTemp)/tempScale)

	historyText := strings.ToLower(strings.Join(history, " "))
	for _, factor := range chronicRiskFactors {
		if historyText != "" && strings.Contains(historyText, factor) {
			features = append(features, 1.0)
		} else {
			features = append(features, 0.0)
		}
	}

	return features
}

// Score 计算风险分值：均值 × 100，保留一位小数，保证落在 [0, 100]。
// 相同输入结果确定。
func (s *RiskScorer) Score(symptoms []string, vitals models.VitalSigns, history []string) float64 {
	features := s.ExtractFeatures(symptoms, vitals, history)
	score := s.predictor.PredictRisk(features) * 100
	return math.Round(score*10) / 10
}

func vitalOrDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
