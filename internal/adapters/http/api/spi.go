package api

import (
	"context"
	"net/http"

	"github.com/okian/drought/internal/domain/model"
)

// SPIDependencies converts a rainfall amount to an SPI value.
type SPIDependencies interface {
	SPI(ctx context.Context, key model.Key, amount float64) (float64, string, error)
}

// SPIHandler handles real-time SPI requests.
type SPIHandler struct {
	deps SPIDependencies
}

// NewSPIHandler creates a new SPI handler.
func NewSPIHandler(deps SPIDependencies) *SPIHandler {
	return &SPIHandler{deps: deps}
}

type spiResponse struct {
	Location  string    `json:"location"`
	Month     string    `json:"month"`
	Timescale int       `json:"timescale"`
	Amount    float64   `json:"amount"`
	SPI       jsonFloat `json:"spi"`
	Category  string    `json:"category"`
}

// HandleGetSPI handles GET /spi?location=&month=&timescale=&amount=.
func (h *SPIHandler) HandleGetSPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	key, err := parseKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	amount, err := parseFloat(r, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	v, category, err := h.deps.SPI(r.Context(), key, amount)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spiResponse{
		Location:  key.Location,
		Month:     key.Month.String(),
		Timescale: key.Timescale,
		Amount:    amount,
		SPI:       jsonFloat(v),
		Category:  category,
	})
}
