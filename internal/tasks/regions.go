package tasks

// Dashboard regions.
const (
	RegionActivitiesInBase = "activities_in_base"
	RegionNameLastActivity = "name_last_activity"
	RegionDateLastActivity = "date_last_activity"
	RegionNoNewActivities  = "no_new_activities"
	RegionInfoLastActivity = "info_last_activity"
	RegionNoActivities     = "no_activities"

	RegionRoutesInBase  = "routes_in_base"
	RegionNameLastRoute = "name_last_route"
	RegionDateLastRoute = "date_last_route"
	RegionNoNewRoutes   = "no_new_routes"
	RegionInfoLastRoute = "info_last_route"
	RegionNoRoutes      = "no_routes"

	RegionModelsInBase         = "models_in_base"
	RegionDateLastModel        = "date_last_model"
	RegionNoActivitiesForTrain = "no_activities_for_train"
	RegionInfoLastModel        = "info_last_model"
	RegionNoModels             = "no_models"

	RegionPredictionTime       = "prediction_time"
	RegionMapRoute             = "map_route"
	RegionMapSegmentationRoute = "map_segmentation_route"
	RegionSegments             = "segments"
	RegionSegmentationInfo     = "segmentation_info"

	RegionStatus = "status"
)

// Regions lists every dashboard region in display order.
var Regions = []string{
	RegionActivitiesInBase, RegionNameLastActivity, RegionDateLastActivity,
	RegionNoNewActivities, RegionInfoLastActivity, RegionNoActivities,
	RegionRoutesInBase, RegionNameLastRoute, RegionDateLastRoute,
	RegionNoNewRoutes, RegionInfoLastRoute, RegionNoRoutes,
	RegionModelsInBase, RegionDateLastModel, RegionNoActivitiesForTrain,
	RegionInfoLastModel, RegionNoModels,
	RegionPredictionTime, RegionMapRoute, RegionMapSegmentationRoute,
	RegionSegments, RegionSegmentationInfo,
	RegionStatus,
}
