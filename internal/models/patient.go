package models

// PatientSnapshot 患者快照（由患者目录提供，用于分诊上下文和机组摘要）
type PatientSnapshot struct {
	PatientID         string   `json:"patient_id"`
	FirstName         string   `json:"nome"`
	LastName          string   `json:"cognome"`
	CodiceFiscale     string   `json:"codice_fiscale,omitempty"`
	ChronicConditions []string `json:"chronic_conditions,omitempty"`
}

// FullName 拼接患者姓名（姓在前，与原始病历格式一致）
func (p *PatientSnapshot) FullName() string {
	if p == nil {
		return "Sconosciuto"
	}
	name := p.LastName
	if p.FirstName != "" {
		if name != "" {
			name += " "
		}
		name += p.FirstName
	}
	if name == "" {
		return "Sconosciuto"
	}
	return name
}
