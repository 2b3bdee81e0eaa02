package models

import "time"

// RouteMapResult is the outcome of exporting the maps of one route.
type RouteMapResult struct {
	RouteID   string   `json:"route_id"`
	RouteName string   `json:"route_name"`
	Success   bool     `json:"success"`
	Files     []string `json:"files,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// MapExportResult summarizes a bulk map export.
type MapExportResult struct {
	TotalRoutes     int              `json:"total_routes"`
	Successful      int              `json:"successful"`
	Failed          int              `json:"failed"`
	OutputDirectory string           `json:"output_directory"`
	ManifestPath    string           `json:"-"`
	ExportedAt      time.Time        `json:"exported_at"`
	Results         []RouteMapResult `json:"results"`
}
