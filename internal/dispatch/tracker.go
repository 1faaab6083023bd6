package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wisefido-emergency/internal/models"
	"wisefido-emergency/internal/store"
)

// ProgressCache 行程进度缓存（供前端轮询读取，写入失败不影响计算结果）
type ProgressCache interface {
	SetTripProgress(ctx context.Context, dispatchID string, progress *models.TripProgress) error
}

// TripTracker 行程跟踪器：基于调度记录和墙钟时间的纯推算，
// 不修改任何共享状态。进度百分比钳制在 [0, 100]，
// 对同一调度随时间单调不减。
type TripTracker struct {
	dispatches *store.DispatchStore
	cache      ProgressCache
	logger     *zap.Logger
	now        func() time.Time
}

// NewTripTracker 创建行程跟踪器。cache 可为 nil。
func NewTripTracker(dispatches *store.DispatchStore, cache ProgressCache, logger *zap.Logger) *TripTracker {
	return &TripTracker{
		dispatches: dispatches,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// Track 推算调度的当前行程进度
func (t *TripTracker) Track(ctx context.Context, dispatchID string) (*models.TripProgress, error) {
	dispatch, err := t.dispatches.Get(dispatchID)
	if err != nil {
		return nil, err
	}

	now := t.now()
	elapsedMinutes := now.Sub(dispatch.DispatchTime).Minutes()
	if elapsedMinutes < 0 {
		elapsedMinutes = 0
	}

	eta := float64(dispatch.ETAMinutes)
	percent := 100.0
	if eta > 0 {
		percent = elapsedMinutes / eta * 100
		if percent > 100 {
			percent = 100
		}
	}

	remaining := int(eta - elapsedMinutes)
	if remaining < 0 {
		remaining = 0
	}

	progress := &models.TripProgress{
		DispatchID:       dispatch.ID,
		AmbulanceID:      dispatch.AmbulanceID,
		CurrentLocation:  Interpolate(dispatch.LocationFrom, dispatch.LocationTo, percent/100),
		ProgressPercent:  percent,
		RemainingMinutes: remaining,
		EstimatedArrival: dispatch.EstimatedArrival,
		Status:           dispatch.Status,
		SpeedKmh:         int(40 + percent/100*10),
		NextWaypoint:     t.nextWaypoint(dispatch, percent),
		LastUpdate:       now,
	}

	if t.cache != nil {
		if err := t.cache.SetTripProgress(ctx, dispatchID, progress); err != nil {
			t.logger.Warn("Failed to cache trip progress",
				zap.String("dispatch_id", dispatchID),
				zap.Error(err),
			)
		}
	}

	return progress, nil
}

// nextWaypoint 行程过半后显示目的医院，否则显示市中心方向
func (t *TripTracker) nextWaypoint(dispatch *models.Dispatch, percent float64) string {
	if percent > 50 {
		return dispatch.DestinationHospital.Name
	}
	return "Centro citta"
}
