package geocode

import (
	"context"
	"fmt"
	"strings"
)

// Prediction is one autocomplete suggestion.
type Prediction struct {
	PlaceID       string `json:"place_id"`
	Description   string `json:"description"`
	MainText      string `json:"main_text,omitempty"`
	SecondaryText string `json:"secondary_text,omitempty"`
}

// PlaceDetails is the resolved detail record for a place id.
type PlaceDetails struct {
	PlaceID          string  `json:"place_id"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// PredictionOptions narrows an autocomplete lookup. Options participate in
// the cache key, so the same input with different options caches separately.
type PredictionOptions struct {
	CountryCode string
	Types       string
}

func (o PredictionOptions) cacheSuffix() string {
	return fmt.Sprintf("country=%s&types=%s", strings.ToLower(o.CountryCode), strings.ToLower(o.Types))
}

// Client is the underlying places API. Implementations are expected to be
// safe for concurrent use.
type Client interface {
	Predictions(ctx context.Context, input string, opts PredictionOptions) ([]Prediction, error)
	Details(ctx context.Context, placeID string) (*PlaceDetails, error)
}
