package models

import (
	"time"
)

// GeoPoint 经纬度坐标
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AmbulanceStatus 救护车状态
// 状态机：available → dispatched → en_route → on_scene → transporting → at_hospital → available
type AmbulanceStatus string

const (
	AmbulanceAvailable    AmbulanceStatus = "available"
	AmbulanceDispatched   AmbulanceStatus = "dispatched"
	AmbulanceEnRoute      AmbulanceStatus = "en_route"
	AmbulanceOnScene      AmbulanceStatus = "on_scene"
	AmbulanceTransporting AmbulanceStatus = "transporting"
	AmbulanceAtHospital   AmbulanceStatus = "at_hospital"
)

// Ambulance 救护车资源（由 FleetRegistry 独占持有，仅通过调度协调器变更）
type Ambulance struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"` // "medicalizzata"（医疗化）或 "basica"（基础）
	Crew           []string        `json:"crew"`
	Equipment      []string        `json:"equipment"`
	Location       GeoPoint        `json:"location"`
	Status         AmbulanceStatus `json:"status"`
	CurrentMission string          `json:"current_mission,omitempty"` // 当前关联的调度ID
}

// Clone 深拷贝救护车记录
func (a *Ambulance) Clone() *Ambulance {
	c := *a
	c.Crew = append([]string(nil), a.Crew...)
	c.Equipment = append([]string(nil), a.Equipment...)
	return &c
}

// Hospital 医院静态参考数据（用于最近医院查找）
type Hospital struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Coordinates GeoPoint `json:"coordinates"`
	Phone       string   `json:"phone"`
}

// CallStatus 急救呼叫状态
type CallStatus string

const (
	CallInitiated           CallStatus = "initiated"
	CallAmbulanceDispatched CallStatus = "ambulance_dispatched"
	CallCompleted           CallStatus = "completed"
	CallCancelled           CallStatus = "cancelled"
)

// CallEvent 呼叫状态变更事件
type CallEvent struct {
	Action     string    `json:"action"`
	DispatchID string    `json:"dispatch_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EmergencyCall 急救呼叫
type EmergencyCall struct {
	ID                  string      `json:"id"`
	PatientID           string      `json:"patient_id"`
	PatientName         string      `json:"patient_name"`
	PatientCF           string      `json:"patient_cf,omitempty"` // codice fiscale
	EmergencyType       string      `json:"emergency_type"`
	TriageLevel         TriageLevel `json:"triage_level"`
	Location            GeoPoint    `json:"location"`
	NearestHospital     Hospital    `json:"nearest_hospital"`
	ResourcesNeeded     []string    `json:"resources_needed"`
	Status              CallStatus  `json:"status"`
	Timestamp           time.Time   `json:"timestamp"`
	AmbulanceDispatched bool        `json:"ambulance_dispatched"`
	DispatchID          string      `json:"dispatch_id,omitempty"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty"`
	History             []CallEvent `json:"call_history"`
}

// Clone 深拷贝呼叫记录
func (c *EmergencyCall) Clone() *EmergencyCall {
	cp := *c
	cp.ResourcesNeeded = append([]string(nil), c.ResourcesNeeded...)
	cp.History = append([]CallEvent(nil), c.History...)
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// DispatchStatus 调度状态
type DispatchStatus string

const (
	DispatchDispatched        DispatchStatus = "dispatched"
	DispatchArrivedAtPatient  DispatchStatus = "arrived_at_patient"
	DispatchPatientOnBoard    DispatchStatus = "patient_on_board"
	DispatchArrivedAtHospital DispatchStatus = "arrived_at_hospital"
	DispatchCompleted         DispatchStatus = "completed"
)

// ClinicalUpdate 转运途中临床更新
type ClinicalUpdate struct {
	VentilationNeeded bool   `json:"ventilation_needed,omitempty"`
	CardiacMonitoring bool   `json:"cardiac_monitoring,omitempty"`
	StrokeSymptoms    bool   `json:"stroke_symptoms,omitempty"`
	Trauma            bool   `json:"trauma,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// DispatchUpdate 调度状态更新事件
type DispatchUpdate struct {
	Timestamp time.Time       `json:"timestamp"`
	Status    DispatchStatus  `json:"status"`
	Location  *GeoPoint       `json:"location,omitempty"`
	Clinical  *ClinicalUpdate `json:"clinical_update,omitempty"`
}

// MissionOutcome 任务结果
type MissionOutcome struct {
	Result string `json:"result"` // 如 "patient_delivered", "cancelled_on_scene"
	Notes  string `json:"notes,omitempty"`
}

// Dispatch 救护车调度（一次调度在生命周期内关联且仅关联一个呼叫和一辆救护车）
type Dispatch struct {
	ID                  string           `json:"id"`
	EmergencyCallID     string           `json:"emergency_call_id"`
	AmbulanceID         string           `json:"ambulance_id"`
	AmbulanceType       string           `json:"ambulance_type"`
	Crew                []string         `json:"crew"`
	Equipment           []string         `json:"equipment"`
	DispatchTime        time.Time        `json:"dispatch_time"`
	ETAMinutes          int              `json:"eta_minutes"`
	EstimatedArrival    time.Time        `json:"estimated_arrival"`
	LocationFrom        GeoPoint         `json:"location_from"`
	LocationTo          GeoPoint         `json:"location_to"`
	DestinationHospital Hospital         `json:"destination_hospital"`
	Route               []string         `json:"route"`
	Status              DispatchStatus   `json:"status"`
	Updates             []DispatchUpdate `json:"updates"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	Outcome             *MissionOutcome  `json:"outcome,omitempty"`
}

// Clone 深拷贝调度记录
func (d *Dispatch) Clone() *Dispatch {
	c := *d
	c.Crew = append([]string(nil), d.Crew...)
	c.Equipment = append([]string(nil), d.Equipment...)
	c.Route = append([]string(nil), d.Route...)
	c.Updates = append([]DispatchUpdate(nil), d.Updates...)
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		c.CompletedAt = &t
	}
	if d.Outcome != nil {
		o := *d.Outcome
		c.Outcome = &o
	}
	return &c
}

// MissionBrief 发送给救护车机组的患者摘要
type MissionBrief struct {
	DispatchID    string      `json:"dispatch_id"`
	PatientID     string      `json:"patient_id"`
	PatientName   string      `json:"patient_name"`
	EmergencyType string      `json:"emergency_type"`
	TriageLevel   TriageLevel `json:"triage_level"`
	Location      GeoPoint    `json:"location"`
	ClinicalNotes string      `json:"clinical_notes,omitempty"`
}

// TripProgress 行程进度（基于墙钟时间和调度记录的纯计算结果）
type TripProgress struct {
	DispatchID       string         `json:"dispatch_id"`
	AmbulanceID      string         `json:"ambulance_id"`
	CurrentLocation  GeoPoint       `json:"current_location"`
	ProgressPercent  float64        `json:"progress_percentage"`
	RemainingMinutes int            `json:"remaining_minutes"`
	EstimatedArrival time.Time      `json:"estimated_arrival"`
	Status           DispatchStatus `json:"status"`
	SpeedKmh         int            `json:"speed_kmh"`
	NextWaypoint     string         `json:"next_waypoint"`
	LastUpdate       time.Time      `json:"last_update"`
}

// FleetUtilization 车队利用率
type FleetUtilization struct {
	Total           int     `json:"total"`
	Available       int     `json:"available"`
	EnRoute         int     `json:"en_route"`
	UtilizationRate float64 `json:"utilization_rate"`
}

// EmergencyStatistics 急救运营统计
type EmergencyStatistics struct {
	TotalEmergencyCalls    int                 `json:"total_emergency_calls"`
	TotalDispatches        int                 `json:"total_dispatches"`
	AverageResponseMinutes float64             `json:"average_response_time"`
	CallsByType            map[string]int      `json:"calls_by_type"`
	CallsByTriage          map[TriageLevel]int `json:"calls_by_triage"`
	AmbulanceUtilization   FleetUtilization    `json:"ambulance_utilization"`
}
