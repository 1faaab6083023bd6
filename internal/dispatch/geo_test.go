package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wisefido-emergency/internal/models"
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	p := models.GeoPoint{Lat: 43.6158, Lon: 13.5189}
	assert.Equal(t, 0.0, Haversine(p, p))
}

func TestHaversine_Symmetric(t *testing.T) {
	a := models.GeoPoint{Lat: 43.6158, Lon: 13.5189}
	b := models.GeoPoint{Lat: 43.5901, Lon: 13.5302}
	assert.Equal(t, Haversine(a, b), Haversine(b, a))
}

func TestHaversine_KnownDistance(t *testing.T) {
	// 安科纳市中心 → Torrette 医院，约 3km
	a := models.GeoPoint{Lat: 43.6158, Lon: 13.5189}
	b := models.GeoPoint{Lat: 43.5901, Lon: 13.5302}
	d := Haversine(a, b)
	assert.Greater(t, d, 2.0)
	assert.Less(t, d, 4.0)
}

func TestETAMinutes(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		expected   int
	}{
		{"ten km at 40kmh", 10, 15},
		{"twenty km at 40kmh", 20, 30},
		{"very short trip floors at one minute", 0.1, 1},
		{"zero distance floors at one minute", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ETAMinutes(tt.distanceKm, 40))
		})
	}
}

func TestInterpolate(t *testing.T) {
	from := models.GeoPoint{Lat: 0, Lon: 0}
	to := models.GeoPoint{Lat: 10, Lon: 20}

	assert.Equal(t, from, Interpolate(from, to, 0))
	assert.Equal(t, to, Interpolate(from, to, 1))

	mid := Interpolate(from, to, 0.5)
	assert.Equal(t, 5.0, mid.Lat)
	assert.Equal(t, 10.0, mid.Lon)

	// 越界分数钳制
	assert.Equal(t, from, Interpolate(from, to, -0.5))
	assert.Equal(t, to, Interpolate(from, to, 1.5))
}

func TestNearestHospital(t *testing.T) {
	hospitals := DefaultHospitals()

	// INRCA 附近的位置应选中 INRCA
	near := models.GeoPoint{Lat: 43.5851, Lon: 13.5251}
	assert.Equal(t, "inrca", NearestHospital(hospitals, near).ID)

	// 等距退化场景：表内顺序优先
	first := NearestHospital(hospitals, hospitals[0].Coordinates)
	assert.Equal(t, "torrette", first.ID)
}
