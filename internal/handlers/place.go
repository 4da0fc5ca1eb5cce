package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/thirstee-app/thirstee/internal/geocode"
)

// PlaceLookup is the geocode surface the handler needs.
type PlaceLookup interface {
	Predictions(ctx context.Context, input string, opts geocode.PredictionOptions) ([]geocode.Prediction, error)
	Details(ctx context.Context, placeID string) (*geocode.PlaceDetails, error)
}

type PlaceHandler struct {
	geocodeService PlaceLookup
}

func NewPlaceHandler(geocodeService PlaceLookup) *PlaceHandler {
	return &PlaceHandler{geocodeService: geocodeService}
}

// Autocomplete serves location suggestions for the event form. Queries
// under three characters return an empty list, and a request superseded
// by a newer keystroke returns 409 so clients can ignore it.
func (h *PlaceHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	query := r.URL.Query().Get("q")
	opts := geocode.PredictionOptions{
		CountryCode: r.URL.Query().Get("country"),
		Types:       r.URL.Query().Get("types"),
	}

	predictions, err := h.geocodeService.Predictions(r.Context(), query, opts)
	if errors.Is(err, geocode.ErrSuperseded) {
		writeError(w, http.StatusConflict, "Superseded by a newer query")
		return
	}
	if err != nil {
		log.Printf("Error fetching predictions: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": predictions})
}

func (h *PlaceHandler) Details(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	placeID := r.PathValue("id")
	if placeID == "" {
		writeError(w, http.StatusBadRequest, "Place ID is required")
		return
	}

	details, err := h.geocodeService.Details(r.Context(), placeID)
	if err != nil {
		log.Printf("Error fetching place details: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if details == nil {
		writeError(w, http.StatusNotFound, "Place not found")
		return
	}

	writeJSON(w, http.StatusOK, details)
}
