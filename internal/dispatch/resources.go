package dispatch

import (
	"wisefido-emergency/internal/models"
)

// emergencyResourceTable 急救类型 → 所需资源（静态查表）
var emergencyResourceTable = map[string][]string{
	"CARDIAC_ARREST":      {"ambulanza_con_rianimatore", "defibrillatore", "farmaci_emergenza"},
	"STROKE":              {"ambulanza_con_neurologo", "tac_prenotata", "team_ictus"},
	"SEVERE_TRAUMA":       {"elisoccorso", "sala_operatoria", "team_trauma"},
	"RESPIRATORY_FAILURE": {"ambulanza_con_ventilatore", "pneumologo", "emogasanalisi"},
	"ACUTE_ABDOMEN":       {"ambulanza", "chirurgo", "ecografo"},
	"CONVULSIONS":         {"ambulanza", "neurologo", "farmaci_antiepilettici"},
}

// RequiredResources 推导急救呼叫所需资源：类型查表（未知类型回退 ambulanza），
// 红色等级追加急诊预警和复苏团队。去重且保持首次出现顺序。
func RequiredResources(emergencyType string, triageLevel models.TriageLevel) []string {
	resources, ok := emergencyResourceTable[emergencyType]
	if !ok {
		resources = []string{"ambulanza"}
	}

	combined := append([]string(nil), resources...)
	if triageLevel == models.CodiceRosso {
		combined = append(combined, "preallarme_ps", "team_rianimazione")
	}

	seen := make(map[string]bool, len(combined))
	deduped := make([]string, 0, len(combined))
	for _, r := range combined {
		if !seen[r] {
			seen[r] = true
			deduped = append(deduped, r)
		}
	}
	return deduped
}

// HospitalResources 从转运途中的临床更新推导医院需准备的资源
func HospitalResources(update *models.ClinicalUpdate) []string {
	resources := make([]string, 0)
	if update == nil {
		return resources
	}

	if update.VentilationNeeded {
		resources = append(resources, "ventilatore")
	}
	if update.CardiacMonitoring {
		resources = append(resources, "monitor_cardiaco")
	}
	if update.StrokeSymptoms {
		resources = append(resources, "team_ictus", "tac_prenotata")
	}
	if update.Trauma {
		resources = append(resources, "team_trauma", "sala_operatoria")
	}
	return resources
}
