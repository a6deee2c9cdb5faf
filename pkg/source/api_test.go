package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwatt/openwatt/pkg/types"
)

const tariffsPayload = `{
	"generated_at": "2026-08-30T10:00:00Z",
	"items": [
		{
			"supplier": "EDF",
			"option": "BASE",
			"puissance_kva": 6,
			"price_kwh_ttc": 0.251,
			"price_kwh_hp_ttc": null,
			"price_kwh_hc_ttc": null,
			"abo_month_ttc": 12.5,
			"data_status": "fresh"
		},
		{
			"supplier": "Engie",
			"option": "HPHC",
			"puissance_kva": 9,
			"price_kwh_ttc": null,
			"price_kwh_hp_ttc": 0.269,
			"price_kwh_hc_ttc": 0.19,
			"abo_month_ttc": 15.2,
			"data_status": "verifying"
		},
		{
			"supplier": "Mint",
			"option": "BASE",
			"puissance_kva": 12,
			"price_kwh_ttc": 0.241,
			"abo_month_ttc": 14.0
		},
		{
			"supplier": "Broken Co",
			"option": "EJP",
			"puissance_kva": 6,
			"abo_month_ttc": 10.0
		}
	]
}`

func TestAPITariffs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tariffs", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("include_stale"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tariffsPayload))
	}))
	defer ts.Close()

	a := &API{baseURL: ts.URL, client: ts.Client()}

	items, err := a.Tariffs(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3, "the record with an unknown option must be dropped at the boundary")

	assert.Equal(t, "EDF", items[0].Supplier)
	require.NotNil(t, items[0].PriceKWhTTC)
	assert.Equal(t, 0.251, *items[0].PriceKWhTTC)
	assert.Nil(t, items[0].PriceKWhHPTTC)

	assert.Equal(t, types.OptionHPHC, items[1].Option)
	assert.Equal(t, types.StatusVerifying, items[1].DataStatus)

	// missing data_status normalizes to stale
	assert.Equal(t, types.StatusStale, items[2].DataStatus)
}

func TestAPITariffsCaching(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer ts.Close()

	a := &API{baseURL: ts.URL, client: ts.Client(), cacheDuration: time.Minute}

	_, err := a.Tariffs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, requests)

	_, err = a.Tariffs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, requests, "second call within the cache window must not hit the backend")
}

func TestAPITariffsErrors(t *testing.T) {
	t.Run("non-success status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer ts.Close()

		a := &API{baseURL: ts.URL, client: ts.Client()}
		_, err := a.Tariffs(context.Background())
		assert.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items": [`))
		}))
		defer ts.Close()

		a := &API{baseURL: ts.URL, client: ts.Client()}
		_, err := a.Tariffs(context.Background())
		assert.Error(t, err)
	})
}

func TestAPITRVEDiff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/guards/trve-diff", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"generated_at": "2026-08-30T10:00:00Z",
			"items": [
				{"supplier": "EDF", "option": "BASE", "puissance_kva": 6, "delta_eur_per_mwh": 1.2, "status": "ok"},
				{"supplier": "Engie", "option": "HPHC", "puissance_kva": 9, "delta_eur_per_mwh": 15.4, "status": "alert"},
				{"supplier": "", "option": "BASE", "puissance_kva": 6, "delta_eur_per_mwh": 3.0}
			]
		}`))
	}))
	defer ts.Close()

	a := &API{baseURL: ts.URL, client: ts.Client()}

	items, err := a.TRVEDiff(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2, "the record with a missing supplier must be dropped at the boundary")
	assert.Equal(t, 1.2, items[0].DeltaEurPerMWh)
	assert.Equal(t, "alert", items[1].Status)
}

func TestAPIValidate(t *testing.T) {
	a := &API{baseURL: "http://localhost:8000"}
	assert.NoError(t, a.Validate())

	a = &API{}
	assert.Error(t, a.Validate())
}
