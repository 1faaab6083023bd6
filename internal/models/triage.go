package models

import (
	"time"
)

// TriageLevel 分诊等级（意大利急诊分诊编码）
type TriageLevel string

const (
	CodiceRosso  TriageLevel = "CODICE_ROSSO"  // 红色 - 立即生命危险
	CodiceGiallo TriageLevel = "CODICE_GIALLO" // 黄色 - 潜在生命危险
	CodiceVerde  TriageLevel = "CODICE_VERDE"  // 绿色 - 轻度紧急
	CodiceBianco TriageLevel = "CODICE_BIANCO" // 白色 - 非紧急
)

// TriageLevelInfo 分诊等级属性
type TriageLevelInfo struct {
	Priority       int    `json:"priority"`         // 1..4，1 为最高优先级
	MaxWaitMinutes int    `json:"max_wait_minutes"` // 最长可接受等待时间（分钟）
	ColorCode      string `json:"color_code"`
	Description    string `json:"description"`
}

// triageLevelTable 分诊等级属性表（静态只读）
var triageLevelTable = map[TriageLevel]TriageLevelInfo{
	CodiceRosso: {
		Priority:       1,
		MaxWaitMinutes: 0,
		ColorCode:      "#ff0000",
		Description:    "Emergenza - Pericolo di vita immediato",
	},
	CodiceGiallo: {
		Priority:       2,
		MaxWaitMinutes: 15,
		ColorCode:      "#ffff00",
		Description:    "Urgenza - Potenziale pericolo di vita",
	},
	CodiceVerde: {
		Priority:       3,
		MaxWaitMinutes: 60,
		ColorCode:      "#00ff00",
		Description:    "Urgenza minore - Non pericolo di vita",
	},
	CodiceBianco: {
		Priority:       4,
		MaxWaitMinutes: 240,
		ColorCode:      "#ffffff",
		Description:    "Non urgente - Visita ambulatoriale",
	},
}

// Info 返回分诊等级属性
func (l TriageLevel) Info() TriageLevelInfo {
	return triageLevelTable[l]
}

// Valid 检查分诊等级是否合法
func (l TriageLevel) Valid() bool {
	_, ok := triageLevelTable[l]
	return ok
}

// VitalSigns 生命体征（各字段可缺失，缺失时评分使用文档化默认值）
type VitalSigns struct {
	HeartRate        *float64 `json:"heart_rate,omitempty"`              // 心率（bpm）
	SystolicBP       *float64 `json:"blood_pressure_systolic,omitempty"` // 收缩压（mmHg）
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`       // 血氧饱和度（%）
	Temperature      *float64 `json:"temperature,omitempty"`             // 体温（°C）
}

// PresentCount 已提供的体征数量（用于置信度计算）
func (v VitalSigns) PresentCount() int {
	count := 0
	for _, p := range []*float64{v.HeartRate, v.SystolicBP, v.OxygenSaturation, v.Temperature} {
		if p != nil {
			count++
		}
	}
	return count
}

// TriageSession 分诊会话（创建后不可变，追加到会话日志）
type TriageSession struct {
	SessionID               string          `json:"session_id"`
	PatientID               string          `json:"patient_id"`
	Timestamp               time.Time       `json:"timestamp"`
	Symptoms                []string        `json:"symptoms_analyzed"`
	VitalSigns              VitalSigns      `json:"vital_signs"`
	MedicalHistory          []string        `json:"medical_history,omitempty"`
	RiskScore               float64         `json:"risk_score"`
	TriageLevel             TriageLevel     `json:"triage_level"`
	TriageDetails           TriageLevelInfo `json:"triage_details"`
	Recommendations         []string        `json:"recommendations"`
	Confidence              float64         `json:"confidence"`
	RequiresImmediateAction bool            `json:"requires_immediate_action"`
}

// Clone 深拷贝会话（切片独立，调用方不会观察到共享状态）
func (s *TriageSession) Clone() *TriageSession {
	c := *s
	c.Symptoms = append([]string(nil), s.Symptoms...)
	c.MedicalHistory = append([]string(nil), s.MedicalHistory...)
	c.Recommendations = append([]string(nil), s.Recommendations...)
	return &c
}
