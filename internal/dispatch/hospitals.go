package dispatch

import (
	"wisefido-emergency/internal/models"
)

// DefaultHospitals 医院静态参考表（安科纳地区）
func DefaultHospitals() []models.Hospital {
	return []models.Hospital{
		{
			ID:          "torrette",
			Name:        "Ospedali Riuniti Torrette",
			Coordinates: models.GeoPoint{Lat: 43.5901, Lon: 13.5302},
			Phone:       "071596111",
		},
		{
			ID:          "salesi",
			Name:        "Ospedale Pediatrico Salesi",
			Coordinates: models.GeoPoint{Lat: 43.5905, Lon: 13.5305},
			Phone:       "071596211",
		},
		{
			ID:          "inrca",
			Name:        "INRCA Ancona",
			Coordinates: models.GeoPoint{Lat: 43.5850, Lon: 13.5250},
			Phone:       "0718003711",
		},
	}
}

// NearestHospital 查找距离最近的医院。等距时按表内顺序取先出现者。
func NearestHospital(hospitals []models.Hospital, location models.GeoPoint) models.Hospital {
	nearest := hospitals[0]
	best := Haversine(location, nearest.Coordinates)
	for _, h := range hospitals[1:] {
		if d := Haversine(location, h.Coordinates); d < best {
			nearest = h
			best = d
		}
	}
	return nearest
}
