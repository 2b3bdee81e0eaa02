// package services defines the backend HTTP client
package services

import (
	"context"
	"net/url"
)

// Backend endpoints consumed by the dashboard.
const (
	EndpointDebug            = "/debug"
	EndpointNewActivities    = "/get_new_activities"
	EndpointNewRoutes        = "/get_new_routes"
	EndpointTrainModels      = "/train_models"
	EndpointPrediction       = "/get_prediction"
	EndpointMap              = "/get_map"
	EndpointSegmentationMap  = "/get_segmentation_map"
	EndpointTestSegmentation = "/test_segmentation"
	EndpointVirtualRide      = "/virtual_ride"
)

// SessionCookie is the cookie the backend reads the athlete from.
const SessionCookie = "athlete_id"

const defaultBackendURL string = "http://localhost:8090"

// Endpoints lists every endpoint in the order they appear on the dashboard.
var Endpoints = []string{
	EndpointDebug,
	EndpointNewActivities,
	EndpointNewRoutes,
	EndpointTrainModels,
	EndpointPrediction,
	EndpointMap,
	EndpointSegmentationMap,
	EndpointTestSegmentation,
	EndpointVirtualRide,
}

// Fetcher performs a GET against the backend.
//
// [Backend] is the production implementation; tests substitute doubles.
type Fetcher interface {
	Get(ctx context.Context, endpoint string, params url.Values) (*APIResponse, error)
	URL(endpoint string, params url.Values) string
}
