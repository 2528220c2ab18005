package geo

import (
	"math"
	"testing"
)

func TestNewPoint_Valid(t *testing.T) {
	tests := []struct {
		lat, lon float64
	}{
		{0, 0},
		{-90, -180},
		{90, 180},
		{-32.9468, -60.6393}, // Rosario
	}
	for _, tc := range tests {
		p, err := NewPoint(tc.lat, tc.lon)
		if err != nil {
			t.Errorf("NewPoint(%g, %g): unexpected error: %v", tc.lat, tc.lon, err)
		}
		if !p.Valid() {
			t.Errorf("NewPoint(%g, %g): expected Valid()", tc.lat, tc.lon)
		}
	}
}

func TestNewPoint_OutOfRange(t *testing.T) {
	tests := []struct {
		lat, lon float64
	}{
		{-90.1, 0},
		{90.1, 0},
		{0, -180.5},
		{0, 180.5},
	}
	for _, tc := range tests {
		if _, err := NewPoint(tc.lat, tc.lon); err == nil {
			t.Errorf("NewPoint(%g, %g): expected error", tc.lat, tc.lon)
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	// Obelisco (Buenos Aires) to Monumento a la Bandera (Rosario): ~280 km.
	ba := Point{Latitude: -34.6037, Longitude: -58.3816}
	ros := Point{Latitude: -32.9478, Longitude: -60.6304}

	d := ba.DistanceMeters(ros)
	if d < 270_000 || d > 290_000 {
		t.Errorf("expected ~280km, got %gm", d)
	}
}

func TestDistanceMeters_Short(t *testing.T) {
	// Two points ~50m apart along a meridian (1 deg lat ~= 111.19 km).
	p := Point{Latitude: -32.9468, Longitude: -60.6393}
	q := Point{Latitude: p.Latitude + 50/111_190.0, Longitude: p.Longitude}

	d := p.DistanceMeters(q)
	if math.Abs(d-50) > 1 {
		t.Errorf("expected ~50m, got %gm", d)
	}
}

func TestDistanceMeters_SamePoint(t *testing.T) {
	p := Point{Latitude: 10, Longitude: 20}
	if d := p.DistanceMeters(p); d != 0 {
		t.Errorf("expected 0, got %g", d)
	}
}
