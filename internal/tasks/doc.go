// Package tasks declares what the dashboard can do against the prediction backend.
//
// # Catalog
//
// [NewCatalog] builds one [controller.Action] per button of the dashboard and
// one [controller.Fanout] for the route selector:
//
//  1. check_activities : /debug, merges the number of new activities into the displayed count
//  2. update_activities : /get_new_activities, replaces count, name and date of the last activity
//  3. update_routes : /get_new_routes, same for routes
//  4. train_models : /train_models, a null answer means there was nothing to train on
//  5. predict : /get_prediction, refused until a route is selected
//  6. test_segmentation : /test_segmentation, shows the backend answer verbatim
//  7. virtual_ride : /virtual_ride, logs the backend answer
//  8. select_route : /get_map and /get_segmentation_map in parallel
//
// Every descriptor writes into named [view.Regions]; the names are the
// Region* constants of this package.
//
// # Selection
//
// [Selection] holds the selected route and the virtual ride toggle. The
// sentinels [NoRouteSelected] and [NoImportedRoutes] mean "no usable route".
//
// # Map export
//
// [ExportMaps] fetches both maps of many routes with a bounded worker pool
// and a rate limiter, writes one HTML page per route and a JSON manifest,
// and reports progress through a non-blocking channel of [ProgressUpdate].
package tasks
