package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/openwatt/openwatt/pkg/common"
	"github.com/openwatt/openwatt/pkg/log"
	"github.com/openwatt/openwatt/pkg/types"
)

// API implements Source against the backend tariff API. Responses are
// cached briefly so that a burst of comparator requests does not hammer
// the backend; failures are returned to the caller and never retried
// automatically.
type API struct {
	baseURL       string
	client        *http.Client
	cacheDuration time.Duration

	mu             sync.Mutex
	cachedTariffs  []types.TariffObservation
	tariffsFetched time.Time
	cachedDeltas   []types.TrveDiffEntry
	deltasFetched  time.Time
}

// configuredAPI sets up flags for the backend API source.
func configuredAPI() *API {
	a := &API{}
	baseURL := lflag.String("api-base-url", "http://localhost:8000", "Base URL of the tariff backend API")
	timeout := lflag.Duration("api-timeout", 10*time.Second, "Timeout for backend API requests")
	cacheDuration := lflag.Duration("api-cache-duration", time.Minute, "Duration to cache backend responses. 0 disables the cache.")

	lflag.Do(func() {
		a.baseURL = strings.TrimRight(*baseURL, "/")
		a.client = common.HTTPClient(*timeout)
		a.cacheDuration = *cacheDuration
	})

	return a
}

// Validate ensures the configuration is valid.
func (a *API) Validate() error {
	if a.baseURL == "" {
		return fmt.Errorf("api-base-url is required")
	}
	if _, err := url.Parse(a.baseURL); err != nil {
		return fmt.Errorf("failed to parse api url (%s): %w", a.baseURL, err)
	}
	return nil
}

// tariffsEnvelope and trveDiffEnvelope mirror the backend response shapes.
type tariffsEnvelope struct {
	Items []types.TariffObservation `json:"items"`
}

type trveDiffEnvelope struct {
	Items []types.TrveDiffEntry `json:"items"`
}

// Tariffs fetches /v1/tariffs and validates each record at the boundary.
// Malformed records are logged and skipped so that null/undefined
// ambiguity never reaches the computation pipeline.
func (a *API) Tariffs(ctx context.Context) ([]types.TariffObservation, error) {
	a.mu.Lock()
	if a.cacheDuration > 0 && !a.tariffsFetched.IsZero() && time.Since(a.tariffsFetched) < a.cacheDuration {
		items := a.cachedTariffs
		a.mu.Unlock()
		return items, nil
	}
	a.mu.Unlock()

	var env tariffsEnvelope
	if err := a.getJSON(ctx, "/v1/tariffs?include_stale=true", &env); err != nil {
		return nil, err
	}

	items := make([]types.TariffObservation, 0, len(env.Items))
	for _, o := range env.Items {
		o.Normalize()
		if err := o.Validate(); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping malformed tariff record",
				slog.String("supplier", o.Supplier),
				slog.Any("error", err))
			continue
		}
		items = append(items, o)
	}

	a.mu.Lock()
	a.cachedTariffs = items
	a.tariffsFetched = time.Now()
	a.mu.Unlock()

	return items, nil
}

// TRVEDiff fetches /v1/guards/trve-diff with the same boundary validation.
func (a *API) TRVEDiff(ctx context.Context) ([]types.TrveDiffEntry, error) {
	a.mu.Lock()
	if a.cacheDuration > 0 && !a.deltasFetched.IsZero() && time.Since(a.deltasFetched) < a.cacheDuration {
		items := a.cachedDeltas
		a.mu.Unlock()
		return items, nil
	}
	a.mu.Unlock()

	var env trveDiffEnvelope
	if err := a.getJSON(ctx, "/v1/guards/trve-diff", &env); err != nil {
		return nil, err
	}

	items := make([]types.TrveDiffEntry, 0, len(env.Items))
	for _, e := range env.Items {
		if err := e.Validate(); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping malformed trve-diff record",
				slog.String("supplier", e.Supplier),
				slog.Any("error", err))
			continue
		}
		items = append(items, e)
	}

	a.mu.Lock()
	a.cachedDeltas = items
	a.deltasFetched = time.Now()
	a.mu.Unlock()

	return items, nil
}

func (a *API) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status fetching %s: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
