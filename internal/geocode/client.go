package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpClientTimeout = 10 * time.Second

// HTTPClient calls the Google Places web service.
type HTTPClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewHTTPClient(apiKey, baseURL string) *HTTPClient {
	return &HTTPClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: httpClientTimeout},
	}
}

type autocompleteResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Predictions  []struct {
		PlaceID              string `json:"place_id"`
		Description          string `json:"description"`
		StructuredFormatting struct {
			MainText      string `json:"main_text"`
			SecondaryText string `json:"secondary_text"`
		} `json:"structured_formatting"`
	} `json:"predictions"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

func (c *HTTPClient) Predictions(ctx context.Context, input string, opts PredictionOptions) ([]Prediction, error) {
	params := url.Values{}
	params.Set("input", input)
	params.Set("key", c.apiKey)
	if opts.CountryCode != "" {
		params.Set("components", "country:"+strings.ToLower(opts.CountryCode))
	}
	if opts.Types != "" {
		params.Set("types", opts.Types)
	}

	var resp autocompleteResponse
	if err := c.get(ctx, "/autocomplete/json", params, &resp); err != nil {
		return nil, err
	}

	// ZERO_RESULTS is a valid empty answer, not an error.
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, apiError(resp.Status, resp.ErrorMessage)
	}

	predictions := make([]Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		predictions = append(predictions, Prediction{
			PlaceID:       p.PlaceID,
			Description:   p.Description,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return predictions, nil
}

func (c *HTTPClient) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("key", c.apiKey)
	params.Set("fields", "place_id,name,formatted_address,geometry/location")

	var resp detailsResponse
	if err := c.get(ctx, "/details/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "ZERO_RESULTS" || resp.Status == "NOT_FOUND" {
		return nil, nil
	}
	if resp.Status != "OK" {
		return nil, apiError(resp.Status, resp.ErrorMessage)
	}

	return &PlaceDetails{
		PlaceID:          resp.Result.PlaceID,
		Name:             resp.Result.Name,
		FormattedAddress: resp.Result.FormattedAddress,
		Latitude:         resp.Result.Geometry.Location.Lat,
		Longitude:        resp.Result.Geometry.Location.Lng,
	}, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build places request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("places API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode places response: %w", err)
	}
	return nil
}

func apiError(status, message string) error {
	if message != "" {
		return fmt.Errorf("places API error: %s: %s", status, message)
	}
	return fmt.Errorf("places API error: %s", status)
}

// StubClient serves canned lookups for local development, so the app
// works without a Places API key.
type StubClient struct{}

func (StubClient) Predictions(_ context.Context, input string, _ PredictionOptions) ([]Prediction, error) {
	return []Prediction{
		{
			PlaceID:       "stub-1",
			Description:   input + " Tavern, 100 Main St",
			MainText:      input + " Tavern",
			SecondaryText: "100 Main St",
		},
		{
			PlaceID:       "stub-2",
			Description:   input + " Brewery, 200 Oak Ave",
			MainText:      input + " Brewery",
			SecondaryText: "200 Oak Ave",
		},
	}, nil
}

func (StubClient) Details(_ context.Context, placeID string) (*PlaceDetails, error) {
	return &PlaceDetails{
		PlaceID:          placeID,
		Name:             "Stubbed Venue",
		FormattedAddress: "100 Main St, Springfield",
		Latitude:         42.1015,
		Longitude:        -72.5898,
	}, nil
}
