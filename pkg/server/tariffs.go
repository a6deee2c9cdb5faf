package server

import (
	"log/slog"
	"net/http"

	"github.com/openwatt/openwatt/pkg/compare"
	"github.com/openwatt/openwatt/pkg/log"
	"github.com/openwatt/openwatt/pkg/types"
)

type tariffsResponse struct {
	Items []types.TariffObservation `json:"items"`
}

type trveDiffResponse struct {
	Items []types.TrveDiffEntry `json:"items"`
}

type profilesResponse struct {
	Items []compare.ConsumptionProfile `json:"items"`
}

func (s *Server) handleListTariffs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := s.source.Tariffs(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch tariffs", slog.Any("error", err))
		writeJSONError(w, "failed to fetch tariffs", http.StatusBadGateway)
		return
	}
	writeJSON(w, tariffsResponse{Items: items})
}

func (s *Server) handleTRVEDiff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := s.source.TRVEDiff(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch trve-diff", slog.Any("error", err))
		writeJSONError(w, "failed to fetch trve-diff", http.StatusBadGateway)
		return
	}
	writeJSON(w, trveDiffResponse{Items: items})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, profilesResponse{Items: compare.Profiles})
}
