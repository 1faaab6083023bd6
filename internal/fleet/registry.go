package fleet

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"wisefido-emergency/internal/models"
)

// DefaultFleet 默认救护车车队（安科纳 118 辖区）
func DefaultFleet() []models.Ambulance {
	return []models.Ambulance{
		{
			ID:        "AMB-001",
			Type:      "medicalizzata",
			Crew:      []string{"autista", "infermiere", "rianimatore"},
			Equipment: []string{"defibrillatore", "ventilatore", "farmaci_emergenza"},
			Location:  models.GeoPoint{Lat: 43.6100, Lon: 13.5200},
			Status:    models.AmbulanceAvailable,
		},
		{
			ID:        "AMB-002",
			Type:      "basica",
			Crew:      []string{"autista", "soccorritore"},
			Equipment: []string{"barella", "ossigeno", "presidi_base"},
			Location:  models.GeoPoint{Lat: 43.6200, Lon: 13.5300},
			Status:    models.AmbulanceAvailable,
		},
		{
			ID:        "AMB-003",
			Type:      "medicalizzata",
			Crew:      []string{"autista", "infermiere", "medico"},
			Equipment: []string{"ecografo", "defibrillatore", "farmaci"},
			Location:  models.GeoPoint{Lat: 43.6000, Lon: 13.5100},
			Status:    models.AmbulanceAvailable,
		},
	}
}

// Registry 车队注册表。独占持有救护车记录；
// 状态变更仅允许调度协调器通过 Claim/SetStatus/Release 驱动，
// 读操作返回独立拷贝，并发读取永远不会观察到更新中途的记录。
type Registry struct {
	mu         sync.RWMutex
	ambulances map[string]*models.Ambulance
	order      []string // 稳定遍历顺序
	logger     *zap.Logger
}

// NewRegistry 创建车队注册表（默认车队）
func NewRegistry(logger *zap.Logger) *Registry {
	return NewRegistryWithFleet(DefaultFleet(), logger)
}

// NewRegistryWithFleet 用指定车队创建注册表
func NewRegistryWithFleet(fleet []models.Ambulance, logger *zap.Logger) *Registry {
	r := &Registry{
		ambulances: make(map[string]*models.Ambulance, len(fleet)),
		order:      make([]string, 0, len(fleet)),
		logger:     logger,
	}
	for i := range fleet {
		amb := fleet[i].Clone()
		r.ambulances[amb.ID] = amb
		r.order = append(r.order, amb.ID)
	}
	return r
}

// Get 按ID获取救护车（拷贝）
func (r *Registry) Get(id string) (*models.Ambulance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	amb, ok := r.ambulances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrAmbulanceNotFound, id)
	}
	return amb.Clone(), nil
}

// Snapshot 车队一致性快照（拷贝，按注册顺序）
func (r *Registry) Snapshot() []models.Ambulance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]models.Ambulance, 0, len(r.order))
	for _, id := range r.order {
		snapshot = append(snapshot, *r.ambulances[id].Clone())
	}
	return snapshot
}

// Available 当前可用救护车列表（拷贝）
func (r *Registry) Available() []models.Ambulance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	available := make([]models.Ambulance, 0, len(r.order))
	for _, id := range r.order {
		if r.ambulances[id].Status == models.AmbulanceAvailable {
			available = append(available, *r.ambulances[id].Clone())
		}
	}
	return available
}

// Claim 原子抢占：仅当救护车处于 available 状态时转入 dispatched 并绑定任务。
// 并发调度尝试中恰有一个成功，其余收到 ErrAmbulanceConflict。
func (r *Registry) Claim(id, missionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	amb, ok := r.ambulances[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrAmbulanceNotFound, id)
	}
	if amb.Status != models.AmbulanceAvailable {
		return fmt.Errorf("%w: %s is %s", models.ErrAmbulanceConflict, id, amb.Status)
	}

	amb.Status = models.AmbulanceDispatched
	amb.CurrentMission = missionID
	return nil
}

// ForceAssign 降级指派：车队耗尽时将任务绑定到非可用车辆（文档化的降级行为）。
// 覆盖原任务绑定，仅由调度协调器在记录告警日志后调用。
func (r *Registry) ForceAssign(id, missionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	amb, ok := r.ambulances[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrAmbulanceNotFound, id)
	}

	amb.Status = models.AmbulanceDispatched
	amb.CurrentMission = missionID
	return nil
}

// SetStatus 设置救护车状态（调度状态映射）
func (r *Registry) SetStatus(id string, status models.AmbulanceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	amb, ok := r.ambulances[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrAmbulanceNotFound, id)
	}
	amb.Status = status
	return nil
}

// Release 任务完成：恢复可用状态，位置更新为目的地，解除任务绑定
func (r *Registry) Release(id string, location models.GeoPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	amb, ok := r.ambulances[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrAmbulanceNotFound, id)
	}

	amb.Status = models.AmbulanceAvailable
	amb.Location = location
	amb.CurrentMission = ""
	return nil
}

// Utilization 车队利用率统计
func (r *Registry) Utilization() models.FleetUtilization {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.ambulances)
	available := 0
	enRoute := 0
	for _, amb := range r.ambulances {
		switch amb.Status {
		case models.AmbulanceAvailable:
			available++
		case models.AmbulanceEnRoute, models.AmbulanceTransporting:
			enRoute++
		}
	}

	rate := 0.0
	if total > 0 {
		rate = round1(float64(total-available) / float64(total) * 100)
	}

	return models.FleetUtilization{
		Total:           total,
		Available:       available,
		EnRoute:         enRoute,
		UtilizationRate: rate,
	}
}

// SortByDistance 按到指定位置的距离升序排序（距离函数由调用方提供，
// 调度协调器传入 haversine）。排序稳定，等距时保持注册顺序。
func SortByDistance(ambulances []models.Ambulance, target models.GeoPoint, distance func(a, b models.GeoPoint) float64) {
	sort.SliceStable(ambulances, func(i, j int) bool {
		return distance(ambulances[i].Location, target) < distance(ambulances[j].Location, target)
	})
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
