package dispatch

import (
	"math"

	"wisefido-emergency/internal/models"
)

// earthRadiusKm 地球半径（km）
const earthRadiusKm = 6371

// Haversine 两点间大圆距离（km）。对称：dist(A,B) == dist(B,A)；dist(A,A) == 0。
func Haversine(a, b models.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// ETAMinutes 由距离和平均车速推算到达时间（分钟），下限 1 分钟
func ETAMinutes(distanceKm, speedKmh float64) int {
	minutes := int(math.Round(distanceKm / speedKmh * 60))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Interpolate 起点到终点的直线插值（非道路跟随的近似）
func Interpolate(from, to models.GeoPoint, fraction float64) models.GeoPoint {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return models.GeoPoint{
		Lat: from.Lat + (to.Lat-from.Lat)*fraction,
		Lon: from.Lon + (to.Lon-from.Lon)*fraction,
	}
}

// illustrativeRoute 示意路线（无路由引擎，固定途经点）
func illustrativeRoute() []string {
	return []string{"Via Flaminia", "SS16", "Via Torrette"}
}
