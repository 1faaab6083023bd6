package stats

import (
	"math"

	"go.uber.org/zap"

	"wisefido-emergency/internal/fleet"
	"wisefido-emergency/internal/models"
	"wisefido-emergency/internal/store"
)

// Aggregator 急救运营统计聚合器。
// 只读消费呼叫/调度存储和车队登记表，按需计算，不落地中间状态。
type Aggregator struct {
	calls      *store.CallStore
	dispatches *store.DispatchStore
	fleet      *fleet.Registry
	logger     *zap.Logger
}

// NewAggregator 创建统计聚合器
func NewAggregator(calls *store.CallStore, dispatches *store.DispatchStore, fleetRegistry *fleet.Registry, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		calls:      calls,
		dispatches: dispatches,
		fleet:      fleetRegistry,
		logger:     logger,
	}
}

// GetStatistics 按日期前缀（RFC3339 截断形式，如 "2026-08-29"，空串取全部）
// 聚合运营统计。平均响应时间为调度发出到抵达患者身边的间隔均值（分钟，
// 保留一位小数）；尚无抵达记录的调度不计入。
func (a *Aggregator) GetStatistics(datePrefix string) *models.EmergencyStatistics {
	calls := a.calls.QueryByDatePrefix(datePrefix)
	dispatches := a.dispatches.QueryByDatePrefix(datePrefix)

	stats := &models.EmergencyStatistics{
		TotalEmergencyCalls:  len(calls),
		TotalDispatches:      len(dispatches),
		CallsByType:          make(map[string]int),
		CallsByTriage:        make(map[models.TriageLevel]int),
		AmbulanceUtilization: a.fleet.Utilization(),
	}

	for _, call := range calls {
		stats.CallsByType[call.EmergencyType]++
		stats.CallsByTriage[call.TriageLevel]++
	}

	stats.AverageResponseMinutes = averageResponseMinutes(dispatches)

	a.logger.Debug("Statistics aggregated",
		zap.String("date_prefix", datePrefix),
		zap.Int("total_calls", stats.TotalEmergencyCalls),
		zap.Int("total_dispatches", stats.TotalDispatches),
	)
	return stats
}

// averageResponseMinutes 响应时间 = 调度发出 → 抵达患者身边
func averageResponseMinutes(dispatches []models.Dispatch) float64 {
	var total float64
	var count int
	for _, d := range dispatches {
		for _, u := range d.Updates {
			if u.Status == models.DispatchArrivedAtPatient {
				total += u.Timestamp.Sub(d.DispatchTime).Minutes()
				count++
				break
			}
		}
	}
	if count == 0 {
		return 0
	}
	return math.Round(total/float64(count)*10) / 10
}
