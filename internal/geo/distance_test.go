package geo

import (
	"math"
	"testing"
)

func TestDistanceIdenticalPoints(t *testing.T) {
	p := Point{Lat: 40.7128, Lng: -74.0060}
	if d := DistanceMiles(p, p); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	nyc := Point{Lat: 40.7128, Lng: -74.0060}
	la := Point{Lat: 34.0522, Lng: -118.2437}

	ab := DistanceMiles(nyc, la)
	ba := DistanceMiles(la, nyc)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestDistanceKnownPairs(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		wantMi   float64
		tolerance float64
	}{
		{
			name:      "NYC to LA",
			a:         Point{Lat: 40.7128, Lng: -74.0060},
			b:         Point{Lat: 34.0522, Lng: -118.2437},
			wantMi:    2445,
			tolerance: 15,
		},
		{
			name:      "short hop within a city",
			a:         Point{Lat: 41.8781, Lng: -87.6298},
			b:         Point{Lat: 41.8919, Lng: -87.6051},
			wantMi:    1.6,
			tolerance: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMiles(tt.a, tt.b)
			if math.Abs(got-tt.wantMi) > tt.tolerance {
				t.Errorf("DistanceMiles = %f, want %f ± %f", got, tt.wantMi, tt.tolerance)
			}
		})
	}
}
