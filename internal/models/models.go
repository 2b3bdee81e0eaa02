// package models defines backend payloads and persisted runs
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActivityCheck is the /debug payload.
type ActivityCheck struct {
	NumberOfNewActivities int    `json:"number_of_new_activities"`
	NameLastActivity      string `json:"name_last_activity"`
	DateLastActivity      string `json:"date_last_activity"`
}

// Empty reports whether no new activity was found.
func (a ActivityCheck) Empty() bool { return a.NumberOfNewActivities <= 0 }

// ActivitiesInfo is the /get_new_activities payload.
type ActivitiesInfo struct {
	ActivitiesAdded  int    `json:"activities_added"`
	ActivitiesInBase int    `json:"activities_in_base"`
	NameLastActivity string `json:"name_last_activity"`
	DateLastActivity string `json:"date_last_activity"`
}

// Empty reports whether the import added nothing.
func (a ActivitiesInfo) Empty() bool { return a.ActivitiesAdded <= 0 }

// RoutesInfo is the /get_new_routes payload.
type RoutesInfo struct {
	RoutesAdded   int    `json:"routes_added"`
	RoutesInBase  int    `json:"routes_in_base"`
	NameLastRoute string `json:"name_last_route"`
	DateLastRoute string `json:"date_last_route"`
}

// Empty reports whether the import added nothing.
func (r RoutesInfo) Empty() bool { return r.RoutesAdded <= 0 }

// ModelsInfo is the /train_models payload.
type ModelsInfo struct {
	ModelsInBase  int    `json:"models_in_base"`
	DateLastModel string `json:"date_last_model"`
}

// Prediction is the /get_prediction payload.
type Prediction struct {
	Hours       int     `json:"hours"`
	Minutes     int     `json:"minutes"`
	Seconds     int     `json:"seconds"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}

// IsNull reports whether body is a JSON null (or blank), the backend's "nothing to report" answer.
func IsNull(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals body into a new T.
//
// It returns (nil, nil) when the body is a JSON null.
func Decode[T any](body []byte) (*T, error) {
	if IsNull(body) {
		return nil, nil
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return &v, nil
}
