// Package models defines the payloads exchanged with the prediction backend and the persisted run history.
//
// The package contains two categories of types:
//
// 1. Response DTOs decoded from the backend's JSON endpoints
//   - [ActivityCheck] : /debug, a delta of new activities
//   - [ActivitiesInfo] : /get_new_activities
//   - [RoutesInfo] : /get_new_routes
//   - [ModelsInfo] : /train_models (null when nothing can be trained)
//   - [Prediction] : /get_prediction (null when no model is trained)
//
// Each counter-bearing DTO exposes an Empty method implementing the "nothing new" sentinel (counter <= 0).
//
// 2. Persistent entities
//   - [Run] : one completed backend request with its [Outcome]
//
// Map, segmentation-map and segmentation-test responses are opaque HTML/text and have no DTO.
package models
