package api

import (
	"context"
	"net/http"

	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/spi"
)

// RainfallDependencies converts an SPI value to a rainfall amount.
type RainfallDependencies interface {
	Rainfall(ctx context.Context, key model.Key, value float64) (float64, error)
}

// RainfallHandler handles SPI-to-rainfall requests.
type RainfallHandler struct {
	deps RainfallDependencies
}

// NewRainfallHandler creates a new rainfall handler.
func NewRainfallHandler(deps RainfallDependencies) *RainfallHandler {
	return &RainfallHandler{deps: deps}
}

type rainfallResponse struct {
	Location  string    `json:"location"`
	Month     string    `json:"month"`
	Timescale int       `json:"timescale"`
	SPI       jsonFloat `json:"spi"`
	Category  string    `json:"category"`
	Rainfall  jsonFloat `json:"rainfall"`
}

// HandleGetRainfall handles GET /rainfall?location=&month=&timescale=&spi=.
func (h *RainfallHandler) HandleGetRainfall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	key, err := parseKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	value, err := parseFloat(r, "spi")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	amount, err := h.deps.Rainfall(r.Context(), key, value)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rainfallResponse{
		Location:  key.Location,
		Month:     key.Month.String(),
		Timescale: key.Timescale,
		SPI:       jsonFloat(value),
		Category:  spi.Classify(value),
		Rainfall:  jsonFloat(amount),
	})
}
