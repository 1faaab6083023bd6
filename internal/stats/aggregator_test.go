package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"wisefido-emergency/internal/fleet"
	"wisefido-emergency/internal/models"
	"wisefido-emergency/internal/store"
)

func seedCall(calls *store.CallStore, id, emergencyType string, level models.TriageLevel, ts time.Time) {
	calls.Append(&models.EmergencyCall{
		ID:            id,
		EmergencyType: emergencyType,
		TriageLevel:   level,
		Status:        models.CallInitiated,
		Timestamp:     ts,
	})
}

func seedDispatchWithArrival(dispatches *store.DispatchStore, id string, start time.Time, arrivalMinutes int) {
	d := &models.Dispatch{
		ID:           id,
		AmbulanceID:  "AMB-001",
		DispatchTime: start,
		Status:       models.DispatchArrivedAtPatient,
		Updates: []models.DispatchUpdate{
			{Timestamp: start, Status: models.DispatchDispatched},
		},
	}
	if arrivalMinutes > 0 {
		d.Updates = append(d.Updates, models.DispatchUpdate{
			Timestamp: start.Add(time.Duration(arrivalMinutes) * time.Minute),
			Status:    models.DispatchArrivedAtPatient,
		})
	}
	dispatches.Append(d)
}

func testAggregator() (*Aggregator, *store.CallStore, *store.DispatchStore) {
	calls := store.NewCallStore()
	dispatches := store.NewDispatchStore()
	a := NewAggregator(calls, dispatches, fleet.NewRegistry(zap.NewNop()), zap.NewNop())
	return a, calls, dispatches
}

func TestGetStatistics_Empty(t *testing.T) {
	a, _, _ := testAggregator()

	stats := a.GetStatistics("")
	assert.Equal(t, 0, stats.TotalEmergencyCalls)
	assert.Equal(t, 0, stats.TotalDispatches)
	assert.Equal(t, 0.0, stats.AverageResponseMinutes)
	assert.Empty(t, stats.CallsByType)
	assert.Equal(t, 3, stats.AmbulanceUtilization.Total)
	assert.Equal(t, 0.0, stats.AmbulanceUtilization.UtilizationRate)
}

func TestGetStatistics_CountsAndBreakdowns(t *testing.T) {
	a, calls, dispatches := testAggregator()
	day := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	seedCall(calls, "EMS-1", "CARDIAC_ARREST", models.CodiceRosso, day)
	seedCall(calls, "EMS-2", "CARDIAC_ARREST", models.CodiceGiallo, day.Add(time.Hour))
	seedCall(calls, "EMS-3", "FEVER", models.CodiceVerde, day.Add(2*time.Hour))

	seedDispatchWithArrival(dispatches, "DSP-1", day, 8)
	seedDispatchWithArrival(dispatches, "DSP-2", day.Add(time.Hour), 13)

	stats := a.GetStatistics("")
	assert.Equal(t, 3, stats.TotalEmergencyCalls)
	assert.Equal(t, 2, stats.TotalDispatches)
	assert.Equal(t, 2, stats.CallsByType["CARDIAC_ARREST"])
	assert.Equal(t, 1, stats.CallsByType["FEVER"])
	assert.Equal(t, 1, stats.CallsByTriage[models.CodiceRosso])
	assert.Equal(t, 1, stats.CallsByTriage[models.CodiceGiallo])
	assert.Equal(t, 1, stats.CallsByTriage[models.CodiceVerde])

	// (8 + 13) / 2 = 10.5
	assert.Equal(t, 10.5, stats.AverageResponseMinutes)
}

func TestGetStatistics_AverageIgnoresPendingDispatches(t *testing.T) {
	a, _, dispatches := testAggregator()
	day := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	seedDispatchWithArrival(dispatches, "DSP-1", day, 9)
	seedDispatchWithArrival(dispatches, "DSP-2", day, 0) // 未抵达

	stats := a.GetStatistics("")
	assert.Equal(t, 2, stats.TotalDispatches)
	assert.Equal(t, 9.0, stats.AverageResponseMinutes)
}

func TestGetStatistics_RoundsToOneDecimal(t *testing.T) {
	a, _, dispatches := testAggregator()
	day := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	seedDispatchWithArrival(dispatches, "DSP-1", day, 7)
	seedDispatchWithArrival(dispatches, "DSP-2", day, 8)
	seedDispatchWithArrival(dispatches, "DSP-3", day, 10)

	// 25/3 = 8.333... → 8.3
	stats := a.GetStatistics("")
	assert.Equal(t, 8.3, stats.AverageResponseMinutes)
}

func TestGetStatistics_DateFilter(t *testing.T) {
	a, calls, dispatches := testAggregator()

	seedCall(calls, "EMS-1", "FEVER", models.CodiceVerde, time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC))
	seedCall(calls, "EMS-2", "STROKE", models.CodiceRosso, time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC))
	seedDispatchWithArrival(dispatches, "DSP-1", time.Date(2026, 8, 28, 23, 5, 0, 0, time.UTC), 5)
	seedDispatchWithArrival(dispatches, "DSP-2", time.Date(2026, 8, 29, 1, 5, 0, 0, time.UTC), 11)

	stats := a.GetStatistics("2026-08-29")
	assert.Equal(t, 1, stats.TotalEmergencyCalls)
	assert.Equal(t, 1, stats.TotalDispatches)
	assert.Equal(t, 1, stats.CallsByType["STROKE"])
	assert.Equal(t, 11.0, stats.AverageResponseMinutes)
}
