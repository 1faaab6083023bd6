package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-emergency/internal/models"
)

func TestRecommendationEngine_LevelDirectivesFirst(t *testing.T) {
	engine := NewRecommendationEngine()

	recs := engine.Recommend(models.CodiceRosso, nil, models.VitalSigns{}, nil)

	require.Len(t, recs, 4)
	assert.Equal(t, "Attivare immediatamente codice emergenza", recs[0])
	assert.Equal(t, "Chiamare 118 per trasporto urgente", recs[1])
}

func TestRecommendationEngine_OrderStable(t *testing.T) {
	engine := NewRecommendationEngine()

	recs := engine.Recommend(models.CodiceGiallo,
		[]string{"difficulty_breathing", "chest_pain"},
		models.VitalSigns{OxygenSaturation: fptr(90)},
		[]string{"diabetes"},
	)

	// 等级指令在前，随后按固定检查顺序（chest_pain 先于 difficulty_breathing）
	// 追加症状指令，最后是病史指令
	expected := []string{
		"Trasporto in Pronto Soccorso entro 15 minuti",
		"Monitoraggio parametri ogni 5 minuti",
		"Contattare medico di base per riferimento",
		"Eseguire ECG appena possibile",
		"Considerare aspirina se non controindicata",
		"Somministrare ossigeno",
		"Posizione semi-seduta",
		"Controllare glicemia",
	}
	assert.Equal(t, expected, recs)
}

func TestRecommendationEngine_OxygenOnlyBelowThreshold(t *testing.T) {
	engine := NewRecommendationEngine()

	// SpO2 >= 94 时不追加给氧指令
	recs := engine.Recommend(models.CodiceVerde,
		[]string{"difficulty_breathing"},
		models.VitalSigns{OxygenSaturation: fptr(96)},
		nil,
	)
	assert.NotContains(t, recs, "Somministrare ossigeno")
	assert.Contains(t, recs, "Posizione semi-seduta")
}

func TestRecommendationEngine_FeverNeedsHighTemperature(t *testing.T) {
	engine := NewRecommendationEngine()

	recs := engine.Recommend(models.CodiceVerde,
		[]string{"fever"},
		models.VitalSigns{Temperature: fptr(37.8)},
		nil,
	)
	assert.NotContains(t, recs, "Somministrare antipiretico")

	recs = engine.Recommend(models.CodiceVerde,
		[]string{"fever"},
		models.VitalSigns{Temperature: fptr(39.0)},
		nil,
	)
	assert.Contains(t, recs, "Somministrare antipiretico")
}

func TestRecommendationEngine_HistoryDirectives(t *testing.T) {
	engine := NewRecommendationEngine()

	recs := engine.Recommend(models.CodiceBianco, nil, models.VitalSigns{},
		[]string{"Hypertension", "Diabetes type 2"})

	assert.Contains(t, recs, "Controllare glicemia")
	assert.Contains(t, recs, "Monitorare pressione arteriosa")
}
