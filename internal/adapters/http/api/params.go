package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/drought/internal/domain/model"
)

// ParamsDependencies lists stored distribution parameters.
type ParamsDependencies interface {
	Params(ctx context.Context, location string) ([]model.FittedParams, error)
}

// ParamsHandler handles parameter listing requests.
type ParamsHandler struct {
	deps ParamsDependencies
}

// NewParamsHandler creates a new params handler.
func NewParamsHandler(deps ParamsDependencies) *ParamsHandler {
	return &ParamsHandler{deps: deps}
}

type paramsEntry struct {
	Location  string  `json:"location"`
	Month     string  `json:"month"`
	Timescale int     `json:"timescale"`
	Alpha     float64 `json:"alpha"`
	Loc       float64 `json:"loc"`
	Beta      float64 `json:"beta"`
}

// HandleGetParams handles GET /params?location=. Without a location every
// stored entry is returned.
func (h *ParamsHandler) HandleGetParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	fitted, err := h.deps.Params(r.Context(), strings.TrimSpace(r.URL.Query().Get("location")))
	if err != nil {
		writeLookupError(w, err)
		return
	}

	out := make([]paramsEntry, 0, len(fitted))
	for _, f := range fitted {
		out = append(out, paramsEntry{
			Location:  f.Key.Location,
			Month:     f.Key.Month.String(),
			Timescale: f.Key.Timescale,
			Alpha:     f.Params.Alpha,
			Loc:       f.Params.Loc,
			Beta:      f.Params.Beta,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
