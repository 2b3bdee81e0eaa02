package shared

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed messages.toml
var messageCatalog []byte

// DefaultLocale is the locale of the web front-end the dashboard replaces.
const DefaultLocale = "fr"

// Messages holds every user-visible string for one locale.
type Messages struct {
	NoNewActivities      string `toml:"no_new_activities"`
	NoNewRoutes          string `toml:"no_new_routes"`
	NoActivitiesForTrain string `toml:"no_activities_for_train"`
	NoTrainedModel       string `toml:"no_trained_model"`
	NoRouteSelected      string `toml:"no_route_selected"`
	NoImportedRoutes     string `toml:"no_imported_routes"`
	ActivityDonePrefix   string `toml:"activity_done_prefix"`
	RouteCreatedPrefix   string `toml:"route_created_prefix"`
	ModelTrainedPrefix   string `toml:"model_trained_prefix"`
	SpeedLabel           string `toml:"speed_label"`
	RequestFailed        string `toml:"request_failed"`
	MapLoaded            string `toml:"map_loaded"`
	NoActivities         string `toml:"no_activities"`
	NoRoutes             string `toml:"no_routes"`
	NoModels             string `toml:"no_models"`
}

// LoadMessages returns the embedded catalog for locale.
//
// An empty locale selects [DefaultLocale].
func LoadMessages(locale string) (*Messages, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	var catalog map[string]Messages
	if err := toml.Unmarshal(messageCatalog, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}

	msgs, ok := catalog[locale]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	return &msgs, nil
}

// MustLoadMessages is like [LoadMessages] but panics on error.
func MustLoadMessages(locale string) *Messages {
	msgs, err := LoadMessages(locale)
	if err != nil {
		panic(err)
	}
	return msgs
}
