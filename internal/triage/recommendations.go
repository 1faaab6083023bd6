package triage

import (
	"strings"

	"wisefido-emergency/internal/models"
)

// levelRecommendations 各分诊等级的基础临床指令
var levelRecommendations = map[models.TriageLevel][]string{
	models.CodiceRosso: {
		"Attivare immediatamente codice emergenza",
		"Chiamare 118 per trasporto urgente",
		"Monitoraggio continuo parametri vitali",
		"Preparare materiale per rianimazione",
	},
	models.CodiceGiallo: {
		"Trasporto in Pronto Soccorso entro 15 minuti",
		"Monitoraggio parametri ogni 5 minuti",
		"Contattare medico di base per riferimento",
	},
	models.CodiceVerde: {
		"Visita ambulatoriale entro 60 minuti",
		"Controllare parametri vitali ogni 30 minuti",
		"Considerare terapia sintomatica",
	},
	models.CodiceBianco: {
		"Visita ambulatoriale programmabile",
		"Consigliare terapia domiciliare",
		"Fornire istruzioni per monitoraggio",
	},
}

// RecommendationEngine 临床指令生成器。
// 指令是叠加且顺序稳定的：等级指令在前，随后按固定检查顺序追加症状指令，最后是病史指令。
// 纯映射，无副作用。
type RecommendationEngine struct{}

// NewRecommendationEngine 创建指令生成器
func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{}
}

// Recommend 生成有序的临床指令列表
func (e *RecommendationEngine) Recommend(level models.TriageLevel, symptoms []string, vitals models.VitalSigns, history []string) []string {
	recommendations := append([]string(nil), levelRecommendations[level]...)

	present := make(map[string]bool, len(symptoms))
	for _, s := range symptoms {
		present[s] = true
	}

	if present["chest_pain"] {
		recommendations = append(recommendations,
			"Eseguire ECG appena possibile",
			"Considerare aspirina se non controindicata",
		)
	}

	if present["difficulty_breathing"] {
		if vitals.OxygenSaturation != nil && *vitals.OxygenSaturation < 94 {
			recommendations = append(recommendations, "Somministrare ossigeno")
		}
		recommendations = append(recommendations, "Posizione semi-seduta")
	}

	if present["fever"] && vitals.Temperature != nil && *vitals.Temperature > 38.5 {
		recommendations = append(recommendations,
			"Somministrare antipiretico",
			"Controllare temperatura ogni 4 ore",
		)
	}

	historyText := strings.ToLower(strings.Join(history, " "))
	if strings.Contains(historyText, "diabetes") {
		recommendations = append(recommendations, "Controllare glicemia")
	}
	if strings.Contains(historyText, "hypertension") {
		recommendations = append(recommendations, "Monitorare pressione arteriosa")
	}

	return recommendations
}
