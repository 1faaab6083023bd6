package fleet

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-emergency/internal/models"
)

func TestRegistry_GetReturnsCopy(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	amb, err := registry.Get("AMB-001")
	require.NoError(t, err)

	// 修改返回值不得影响注册表内部状态
	amb.Status = models.AmbulanceTransporting
	amb.Crew[0] = "mutated"

	again, err := registry.Get("AMB-001")
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceAvailable, again.Status)
	assert.Equal(t, "autista", again.Crew[0])
}

func TestRegistry_GetUnknown(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	_, err := registry.Get("AMB-999")
	assert.True(t, errors.Is(err, models.ErrAmbulanceNotFound))
}

func TestRegistry_ClaimSingleWinner(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	// 并发抢占同一辆可用救护车，恰有一个成功
	const attempts = 16
	var wg sync.WaitGroup
	successes := make(chan string, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			missionID := "DSP-" + string(rune('A'+n))
			if err := registry.Claim("AMB-002", missionID); err == nil {
				successes <- missionID
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	won := make([]string, 0, attempts)
	for id := range successes {
		won = append(won, id)
	}
	require.Len(t, won, 1)

	amb, err := registry.Get("AMB-002")
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceDispatched, amb.Status)
	assert.Equal(t, won[0], amb.CurrentMission)
}

func TestRegistry_ClaimConflict(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	require.NoError(t, registry.Claim("AMB-001", "DSP-1"))

	err := registry.Claim("AMB-001", "DSP-2")
	assert.True(t, errors.Is(err, models.ErrAmbulanceConflict))
}

func TestRegistry_Release(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	destination := models.GeoPoint{Lat: 43.5901, Lon: 13.5302}

	require.NoError(t, registry.Claim("AMB-003", "DSP-1"))
	require.NoError(t, registry.Release("AMB-003", destination))

	amb, err := registry.Get("AMB-003")
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceAvailable, amb.Status)
	assert.Equal(t, destination, amb.Location)
	assert.Empty(t, amb.CurrentMission)
}

func TestRegistry_Available(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	require.Len(t, registry.Available(), 3)

	require.NoError(t, registry.Claim("AMB-001", "DSP-1"))
	available := registry.Available()
	require.Len(t, available, 2)
	for _, amb := range available {
		assert.NotEqual(t, "AMB-001", amb.ID)
	}
}

func TestRegistry_Utilization(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	require.NoError(t, registry.Claim("AMB-001", "DSP-1"))
	require.NoError(t, registry.SetStatus("AMB-001", models.AmbulanceEnRoute))

	util := registry.Utilization()
	assert.Equal(t, 3, util.Total)
	assert.Equal(t, 2, util.Available)
	assert.Equal(t, 1, util.EnRoute)
	assert.InDelta(t, 33.3, util.UtilizationRate, 0.05)
}

func TestSortByDistance_Stable(t *testing.T) {
	ambulances := []models.Ambulance{
		{ID: "A", Location: models.GeoPoint{Lat: 1, Lon: 0}},
		{ID: "B", Location: models.GeoPoint{Lat: 0, Lon: 0}},
		{ID: "C", Location: models.GeoPoint{Lat: 0, Lon: 0}}, // 与 B 等距，保持顺序
	}
	target := models.GeoPoint{Lat: 0, Lon: 0}

	SortByDistance(ambulances, target, func(a, b models.GeoPoint) float64 {
		dLat := a.Lat - b.Lat
		dLon := a.Lon - b.Lon
		return dLat*dLat + dLon*dLon
	})

	assert.Equal(t, "B", ambulances[0].ID)
	assert.Equal(t, "C", ambulances[1].ID)
	assert.Equal(t, "A", ambulances[2].ID)
}
