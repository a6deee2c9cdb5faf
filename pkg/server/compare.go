package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/openwatt/openwatt/pkg/compare"
	"github.com/openwatt/openwatt/pkg/log"
	"github.com/openwatt/openwatt/pkg/types"
)

// defaults applied when the request carries neither a consumption nor a
// profile parameter.
const (
	defaultProfileID  = "apartment"
	defaultHCSharePct = 30
)

type compareResponse struct {
	Params          compare.Params               `json:"params"`
	Profiles        []compare.ConsumptionProfile `json:"profiles"`
	SelectedProfile *compare.ConsumptionProfile  `json:"selectedProfile,omitempty"`
	Rows            []compare.Row                `json:"rows"`
	Top             []compare.RankedRow          `json:"top,omitempty"`
	// TrveDiffError is set when the delta list could not be fetched; rows
	// then carry no vsTrve figures at all rather than partial ones.
	TrveDiffError string `json:"trveDiffError,omitempty"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := parseCompareParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// the two fetches are independent and may complete in either order;
	// the pipeline runs once against a snapshot of both
	var observations []types.TariffObservation
	var deltas []types.TrveDiffEntry
	var trveErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		observations, err = s.source.Tariffs(gctx)
		return err
	})
	g.Go(func() error {
		// a delta-list failure degrades the comparison instead of failing
		// the whole request
		deltas, trveErr = s.source.TRVEDiff(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch tariffs", slog.Any("error", err))
		writeJSONError(w, "failed to fetch tariffs", http.StatusBadGateway)
		return
	}

	resp := compareResponse{
		Params:          params,
		Profiles:        compare.Profiles,
		SelectedProfile: compare.SelectedProfile(params.ConsumptionKWH),
	}
	if trveErr != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to fetch trve-diff", slog.Any("error", trveErr))
		deltas = nil
		resp.TrveDiffError = "regulated-tariff comparison unavailable"
	}

	res := compare.Run(observations, deltas, params)
	resp.Rows = res.Rows
	resp.Top = res.Top

	writeJSON(w, resp)
}

func parseCompareParams(r *http.Request) (compare.Params, error) {
	q := r.URL.Query()
	params := compare.Params{
		ConsumptionKWH: mustProfileKWH(defaultProfileID),
		HCSharePct:     defaultHCSharePct,
	}

	if v := q.Get("profile"); v != "" {
		p, ok := compare.ProfileByID(v)
		if !ok {
			return compare.Params{}, fmt.Errorf("unknown profile: %s", v)
		}
		params.ConsumptionKWH = p.AnnualKWH
	}

	// an explicit consumption wins over the profile and clears the selection
	if v := q.Get("consumption"); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil || c < 0 {
			return compare.Params{}, fmt.Errorf("invalid consumption: %s", v)
		}
		params.ConsumptionKWH = c
	}

	if v := q.Get("hcShare"); v != "" {
		hc, err := strconv.ParseFloat(v, 64)
		if err != nil || hc < 0 || hc > 100 {
			return compare.Params{}, fmt.Errorf("invalid hcShare: %s", v)
		}
		params.HCSharePct = hc
	}

	if v := q.Get("option"); v != "" {
		o, err := types.ParseTariffOption(v)
		if err != nil {
			return compare.Params{}, err
		}
		params.Option = &o
	}

	if v := q.Get("puissance"); v != "" {
		kva, err := strconv.Atoi(v)
		if err != nil || !types.ValidPowerTier(kva) {
			return compare.Params{}, fmt.Errorf("invalid puissance: %s", v)
		}
		params.PuissanceKVA = &kva
	}

	switch v := q.Get("cheaperOnly"); v {
	case "", "false", "0":
	case "true", "1":
		params.CheaperOnly = true
	default:
		return compare.Params{}, fmt.Errorf("invalid cheaperOnly: %s", v)
	}

	return params, nil
}

func mustProfileKWH(id string) float64 {
	p, ok := compare.ProfileByID(id)
	if !ok {
		// we want a stack trace when a default points at a missing profile
		panic(fmt.Sprintf("unknown default profile: %s", id))
	}
	return p.AnnualKWH
}
