package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-emergency/internal/models"
	"wisefido-emergency/internal/store"
)

type fakeProgressCache struct {
	saved map[string]*models.TripProgress
	err   error
}

func (f *fakeProgressCache) SetTripProgress(_ context.Context, dispatchID string, progress *models.TripProgress) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]*models.TripProgress)
	}
	f.saved[dispatchID] = progress
	return nil
}

func seedDispatch(t *testing.T, dispatches *store.DispatchStore, start time.Time, etaMinutes int) *models.Dispatch {
	t.Helper()
	d := &models.Dispatch{
		ID:                  "DSP-20260829-abc12345",
		EmergencyCallID:     "EMS-20260829-def67890",
		AmbulanceID:         "AMB-001",
		DispatchTime:        start,
		ETAMinutes:          etaMinutes,
		EstimatedArrival:    start.Add(time.Duration(etaMinutes) * time.Minute),
		LocationFrom:        models.GeoPoint{Lat: 43.60, Lon: 13.50},
		LocationTo:          models.GeoPoint{Lat: 43.62, Lon: 13.54},
		DestinationHospital: models.Hospital{ID: "torrette", Name: "Ospedali Riuniti Torrette"},
		Status:              models.DispatchDispatched,
	}
	dispatches.Append(d)
	return d
}

func TestTrack_NotFound(t *testing.T) {
	tracker := NewTripTracker(store.NewDispatchStore(), nil, zap.NewNop())

	_, err := tracker.Track(context.Background(), "DSP-NOPE")
	assert.True(t, errors.Is(err, models.ErrDispatchNotFound))
}

func TestTrack_Halfway(t *testing.T) {
	dispatches := store.NewDispatchStore()
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	d := seedDispatch(t, dispatches, start, 10)

	tracker := NewTripTracker(dispatches, nil, zap.NewNop())
	tracker.now = func() time.Time { return start.Add(5 * time.Minute) }

	progress, err := tracker.Track(context.Background(), d.ID)
	require.NoError(t, err)

	assert.Equal(t, 50.0, progress.ProgressPercent)
	assert.Equal(t, 5, progress.RemainingMinutes)
	assert.Equal(t, 45, progress.SpeedKmh)
	assert.Equal(t, "Centro citta", progress.NextWaypoint)

	// 位置为起止点直线中点
	assert.InDelta(t, 43.61, progress.CurrentLocation.Lat, 1e-9)
	assert.InDelta(t, 13.52, progress.CurrentLocation.Lon, 1e-9)
}

func TestTrack_ClampedAtHundred(t *testing.T) {
	dispatches := store.NewDispatchStore()
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	d := seedDispatch(t, dispatches, start, 10)

	tracker := NewTripTracker(dispatches, nil, zap.NewNop())
	tracker.now = func() time.Time { return start.Add(30 * time.Minute) }

	progress, err := tracker.Track(context.Background(), d.ID)
	require.NoError(t, err)

	assert.Equal(t, 100.0, progress.ProgressPercent)
	assert.Equal(t, 0, progress.RemainingMinutes)
	assert.Equal(t, d.LocationTo, progress.CurrentLocation)
	assert.Equal(t, "Ospedali Riuniti Torrette", progress.NextWaypoint)
}

func TestTrack_BeforeDepartureClampedAtZero(t *testing.T) {
	dispatches := store.NewDispatchStore()
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	d := seedDispatch(t, dispatches, start, 10)

	tracker := NewTripTracker(dispatches, nil, zap.NewNop())
	tracker.now = func() time.Time { return start.Add(-time.Minute) }

	progress, err := tracker.Track(context.Background(), d.ID)
	require.NoError(t, err)

	assert.Equal(t, 0.0, progress.ProgressPercent)
	assert.Equal(t, d.LocationFrom, progress.CurrentLocation)
	assert.Equal(t, 40, progress.SpeedKmh)
}

func TestTrack_MonotonicNonDecreasing(t *testing.T) {
	dispatches := store.NewDispatchStore()
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	d := seedDispatch(t, dispatches, start, 7)

	tracker := NewTripTracker(dispatches, nil, zap.NewNop())

	prev := -1.0
	for minute := 0; minute <= 12; minute++ {
		offset := time.Duration(minute) * time.Minute
		tracker.now = func() time.Time { return start.Add(offset) }
		progress, err := tracker.Track(context.Background(), d.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, progress.ProgressPercent, prev)
		assert.LessOrEqual(t, progress.ProgressPercent, 100.0)
		prev = progress.ProgressPercent
	}
}

func TestTrack_WritesCache(t *testing.T) {
	dispatches := store.NewDispatchStore()
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	d := seedDispatch(t, dispatches, start, 10)

	cache := &fakeProgressCache{}
	tracker := NewTripTracker(dispatches, cache, zap.NewNop())
	tracker.now = func() time.Time { return start.Add(5 * time.Minute) }

	progress, err := tracker.Track(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, progress, cache.saved[d.ID])
}

func TestTrack_CacheFailureIsNonFatal(t *testing.T) {
	dispatches := store.NewDispatchStore()
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	d := seedDispatch(t, dispatches, start, 10)

	cache := &fakeProgressCache{err: errors.New("redis down")}
	tracker := NewTripTracker(dispatches, cache, zap.NewNop())

	_, err := tracker.Track(context.Background(), d.ID)
	assert.NoError(t, err)
}
