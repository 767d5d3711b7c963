// Package viz renders solved routes as GeoJSON for map display.
package viz

import "vrpsolve/internal/cvrp"

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
}

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// RoutesGeoJSON builds a FeatureCollection with one Point per stop and one
// LineString per vehicle route. Coordinates are [lon, lat] per RFC 7946.
func RoutesGeoJSON(sol *cvrp.Solution) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, r := range sol.Routes {
		line := make([][2]float64, 0, len(r.Stops))
		for i, s := range r.Stops {
			pt := [2]float64{s.Lon, s.Lat}
			line = append(line, pt)
			props := map[string]any{
				"vehicle":  r.Vehicle,
				"node":     s.Node,
				"sequence": i,
				"demand":   s.Demand,
				"distance": s.Distance,
			}
			if i == 0 || i == len(r.Stops)-1 {
				props["depot"] = true
			}
			fc.Features = append(fc.Features, Feature{
				Type:       "Feature",
				Geometry:   Geometry{Type: "Point", Coordinates: pt},
				Properties: props,
			})
		}
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "LineString", Coordinates: line},
			Properties: map[string]any{
				"vehicle":  r.Vehicle,
				"load":     r.Load,
				"distance": r.Distance,
			},
		})
	}
	return fc
}
