// Command stubapi serves a fixture copy of the backend tariff API for
// local development, so the comparator can run without the real backend.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/openwatt/openwatt/pkg/log"
	"github.com/openwatt/openwatt/pkg/types"
)

func f64(v float64) *float64 { return &v }

// seedObservations mirrors the backend's seed rows: one fresh BASE offer,
// one HPHC offer pending validation, one stale offer, one broken parse and
// the regulated-tariff reference row.
func seedObservations(now time.Time) []types.TariffObservation {
	base := now.Truncate(time.Second)
	edfVerified := base.Add(-6 * time.Hour)
	mintVerified := base.Add(-10 * 24 * time.Hour)

	rows := []types.TariffObservation{
		{
			Supplier:      "EDF",
			Option:        types.OptionBase,
			PuissanceKVA:  6,
			PriceKWhTTC:   f64(0.251),
			AboMonthTTC:   12.5,
			ObservedAt:    base.Add(-24 * time.Hour),
			ParserVersion: "edf_v1",
			SourceURL:     "https://edf.fr/tarifs",
			LastVerified:  &edfVerified,
		},
		{
			Supplier:      "Engie",
			Option:        types.OptionHPHC,
			PuissanceKVA:  9,
			PriceKWhHPTTC: f64(0.269),
			PriceKWhHCTTC: f64(0.19),
			AboMonthTTC:   15.2,
			ObservedAt:    base.Add(-8 * time.Hour),
			ParserVersion: "engie_v1",
			SourceURL:     "https://particuliers.engie.fr/tarifs",
			DataStatus:    types.StatusVerifying,
		},
		{
			Supplier:      "Mint",
			Option:        types.OptionBase,
			PuissanceKVA:  12,
			PriceKWhTTC:   f64(0.241),
			AboMonthTTC:   14.0,
			ObservedAt:    base.Add(-20 * 24 * time.Hour),
			ParserVersion: "mint_v1",
			SourceURL:     "https://mint-energie.com/tarifs",
			LastVerified:  &mintVerified,
		},
		{
			Supplier:      "TotalEnergies",
			Option:        types.OptionBase,
			PuissanceKVA:  3,
			AboMonthTTC:   11.2,
			ObservedAt:    base.Add(-2 * 24 * time.Hour),
			ParserVersion: "total_v1",
			SourceURL:     "https://www.totalenergies.fr/offres-electricite",
			DataStatus:    types.StatusBroken,
		},
		{
			Supplier:      "EDF Tarif Réglementé",
			Option:        types.OptionBase,
			PuissanceKVA:  6,
			PriceKWhTTC:   f64(0.2516),
			AboMonthTTC:   12.6,
			ObservedAt:    base.Add(-24 * time.Hour),
			ParserVersion: "trve_v1",
			SourceURL:     "https://www.legifrance.gouv.fr",
		},
	}

	for i := range rows {
		if rows[i].DataStatus == "" {
			// stale after 14 days without a fresh observation
			if now.Sub(rows[i].ObservedAt) > 14*24*time.Hour {
				rows[i].DataStatus = types.StatusStale
			} else {
				rows[i].DataStatus = types.StatusFresh
			}
		}
	}
	return rows
}

func seedDeltas(now time.Time) []types.TrveDiffEntry {
	status := func(delta float64) string {
		// an offer more than 10 €/MWh above the reference trips the guard
		if delta > 10 {
			return "alert"
		}
		return "ok"
	}
	return []types.TrveDiffEntry{
		{Supplier: "EDF", Option: types.OptionBase, PuissanceKVA: 6, DeltaEurPerMWh: 1.2, ComparedAt: now, Status: status(1.2)},
		{Supplier: "Engie", Option: types.OptionHPHC, PuissanceKVA: 9, DeltaEurPerMWh: 15.4, ComparedAt: now, Status: status(15.4)},
		{Supplier: "Mint", Option: types.OptionBase, PuissanceKVA: 12, DeltaEurPerMWh: -8.3, ComparedAt: now, Status: status(-8.3)},
	}
}

func handleTariffs(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	q := r.URL.Query()
	includeStale := q.Get("include_stale") == "true"

	items := make([]types.TariffObservation, 0)
	for _, o := range seedObservations(now) {
		if v := q.Get("option"); v != "" && string(o.Option) != v {
			continue
		}
		if v := q.Get("puissance"); v != "" {
			kva, err := strconv.Atoi(v)
			if err != nil || o.PuissanceKVA != kva {
				continue
			}
		}
		if !includeStale && (o.DataStatus == types.StatusStale || o.DataStatus == types.StatusBroken) {
			continue
		}
		items = append(items, o)
	}

	writeJSON(w, struct {
		GeneratedAt time.Time                 `json:"generated_at"`
		Items       []types.TariffObservation `json:"items"`
	}{GeneratedAt: now, Items: items})
}

func handleTRVEDiff(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	writeJSON(w, struct {
		GeneratedAt time.Time             `json:"generated_at"`
		Items       []types.TrveDiffEntry `json:"items"`
	}{GeneratedAt: now, Items: seedDeltas(now)})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Status       string    `json:"status"`
		Service      string    `json:"service"`
		TimestampUTC time.Time `json:"timestamp_utc"`
	}{Status: "ok", Service: "stubapi", TimestampUTC: time.Now().UTC()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func main() {
	listenAddr := lflag.String("http-listen", ":8000", "HTTP listen address for the stub API")
	lflag.Configure()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/tariffs", handleTariffs)
	mux.HandleFunc("GET /v1/guards/trve-diff", handleTRVEDiff)
	mux.HandleFunc("GET /health", handleHealth)

	ctx := context.Background()
	log.Ctx(ctx).InfoContext(ctx, "stub api listening", slog.String("addr", *listenAddr))
	if err := http.ListenAndServe(*listenAddr, mux); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "stub api failed", slog.Any("error", err))
		os.Exit(1)
	}
}
