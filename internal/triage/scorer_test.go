package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-emergency/internal/models"
)

func fptr(v float64) *float64 {
	return &v
}

func TestRiskScorer_FeatureVectorShape(t *testing.T) {
	scorer := NewRiskScorer(nil)

	features := scorer.ExtractFeatures(
		[]string{"chest_pain", "fever"},
		models.VitalSigns{HeartRate: fptr(110)},
		[]string{"diabetes type 2"},
	)

	// 10 症状槽位 + 4 体征槽位 + 5 病史槽位
	require.Len(t, features, 19)

	// chest_pain 是表中第一个症状
	assert.Equal(t, 1.0, features[0])
	// fever 是表中第八个症状
	assert.Equal(t, 1.0, features[7])
	// 未出现的症状槽位为 0
	assert.Equal(t, 0.0, features[1])

	// 体征归一化：HR 110/200
	assert.InDelta(t, 0.55, features[10], 1e-9)
	// 缺失体征使用默认值：SBP 120/200, SpO2 98/100, Temp 36.5/40
	assert.InDelta(t, 0.6, features[11], 1e-9)
	assert.InDelta(t, 0.98, features[12], 1e-9)
	assert.InDelta(t, 0.9125, features[13], 1e-9)

	// diabetes 是第一个慢性风险因素
	assert.Equal(t, 1.0, features[14])
	assert.Equal(t, 0.0, features[15])
}

func TestRiskScorer_Deterministic(t *testing.T) {
	scorer := NewRiskScorer(nil)

	symptoms := []string{"chest_pain", "dizziness"}
	vitals := models.VitalSigns{HeartRate: fptr(95), OxygenSaturation: fptr(97)}
	history := []string{"hypertension"}

	first := scorer.Score(symptoms, vitals, history)
	second := scorer.Score(symptoms, vitals, history)

	assert.Equal(t, first, second)
}

func TestRiskScorer_ScoreBounds(t *testing.T) {
	scorer := NewRiskScorer(nil)

	cases := []struct {
		name     string
		symptoms []string
		vitals   models.VitalSigns
		history  []string
	}{
		{name: "empty input"},
		{
			name: "all top symptoms with extreme vitals",
			symptoms: []string{
				"chest_pain", "difficulty_breathing", "severe_headache",
				"loss_of_consciousness", "seizure", "severe_bleeding",
				"abdominal_pain", "fever", "cough", "fatigue",
			},
			vitals:  models.VitalSigns{HeartRate: fptr(250), SystolicBP: fptr(250), Temperature: fptr(42)},
			history: []string{"diabetes", "hypertension", "heart_disease", "copd", "cancer"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := scorer.Score(tc.symptoms, tc.vitals, tc.history)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		})
	}
}

func TestRiskScorer_MissingVitalsUseDefaults(t *testing.T) {
	scorer := NewRiskScorer(nil)

	// 体征全部缺失不得导致评分失败
	score := scorer.Score([]string{"cough"}, models.VitalSigns{}, nil)
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestSymptomWeight(t *testing.T) {
	assert.Equal(t, 100, SymptomWeight("loss_of_consciousness"))
	assert.Equal(t, 95, SymptomWeight("chest_pain"))
	assert.Equal(t, 0, SymptomWeight("unknown_symptom"))
}

// stubPredictor 固定输出的预测器（测试替身，验证策略接口可替换）
type stubPredictor struct {
	risk float64
}

func (s stubPredictor) PredictRisk(features []float64) float64 {
	return s.risk
}

func TestRiskScorer_SwappablePredictor(t *testing.T) {
	scorer := NewRiskScorer(stubPredictor{risk: 0.65})

	score := scorer.Score([]string{"fatigue"}, models.VitalSigns{}, nil)
	assert.Equal(t, 65.0, score)
}
