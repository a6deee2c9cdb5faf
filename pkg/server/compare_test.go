package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openwatt/openwatt/pkg/source/sourcemock"
	"github.com/openwatt/openwatt/pkg/types"
)

func f64(v float64) *float64 { return &v }

func fixtureObservations() []types.TariffObservation {
	return []types.TariffObservation{
		{Supplier: "Expensive", Option: types.OptionBase, PuissanceKVA: 6, AboMonthTTC: 20, PriceKWhTTC: f64(0.3), DataStatus: types.StatusFresh},
		{Supplier: "Cheap", Option: types.OptionBase, PuissanceKVA: 6, AboMonthTTC: 5, PriceKWhTTC: f64(0.1), DataStatus: types.StatusFresh},
		{Supplier: "Engie", Option: types.OptionHPHC, PuissanceKVA: 9, AboMonthTTC: 15.2, PriceKWhHPTTC: f64(0.269), PriceKWhHCTTC: f64(0.19), DataStatus: types.StatusVerifying},
	}
}

func fixtureDeltas() []types.TrveDiffEntry {
	return []types.TrveDiffEntry{
		{Supplier: "Cheap", Option: types.OptionBase, PuissanceKVA: 6, DeltaEurPerMWh: -10},
		{Supplier: "Expensive", Option: types.OptionBase, PuissanceKVA: 6, DeltaEurPerMWh: 25},
	}
}

func doCompare(t *testing.T, src *sourcemock.MockSource, target string) (*http.Response, compareResponse) {
	t.Helper()
	srv := &Server{source: src}

	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	srv.handleCompare(w, req)

	resp := w.Result()
	var body compareResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	}
	return resp, body
}

func TestHandleCompare(t *testing.T) {
	src := &sourcemock.MockSource{}
	src.On("Tariffs", mock.Anything).Return(fixtureObservations(), nil)
	src.On("TRVEDiff", mock.Anything).Return(fixtureDeltas(), nil)

	resp, body := doCompare(t, src, "/api/compare?consumption=5000&hcShare=40")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, body.Rows, 3)
	assert.Equal(t, "Cheap", body.Rows[0].Supplier)
	assert.InDelta(t, 620.0, body.Rows[0].AnnualCost, 1e-9)
	require.NotNil(t, body.Rows[0].VsTRVE)
	assert.InDelta(t, -50.0, *body.Rows[0].VsTRVE, 1e-9)

	// Engie has no matching delta entry
	for _, r := range body.Rows {
		if r.Supplier == "Engie" {
			assert.Nil(t, r.VsTRVE)
		}
	}

	require.Len(t, body.Top, 3)
	assert.Equal(t, 1, body.Top[0].Rank)
	assert.Equal(t, "Cheap", body.Top[0].Supplier)
	assert.Zero(t, body.Top[0].DeltaToBest)

	// 5000 kWh matches the apartment preset
	require.NotNil(t, body.SelectedProfile)
	assert.Equal(t, "apartment", body.SelectedProfile.ID)
	assert.Len(t, body.Profiles, 4)
}

func TestHandleCompareProfileParam(t *testing.T) {
	src := &sourcemock.MockSource{}
	src.On("Tariffs", mock.Anything).Return(fixtureObservations(), nil)
	src.On("TRVEDiff", mock.Anything).Return(fixtureDeltas(), nil)

	t.Run("profile sets consumption", func(t *testing.T) {
		resp, body := doCompare(t, src, "/api/compare?profile=studio")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 2000.0, body.Params.ConsumptionKWH)
		require.NotNil(t, body.SelectedProfile)
		assert.Equal(t, "studio", body.SelectedProfile.ID)
	})

	t.Run("explicit consumption clears the selection", func(t *testing.T) {
		resp, body := doCompare(t, src, "/api/compare?profile=studio&consumption=2100")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 2100.0, body.Params.ConsumptionKWH)
		assert.Nil(t, body.SelectedProfile)
	})

	t.Run("unknown profile rejected", func(t *testing.T) {
		resp, _ := doCompare(t, src, "/api/compare?profile=villa")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleCompareFilters(t *testing.T) {
	src := &sourcemock.MockSource{}
	src.On("Tariffs", mock.Anything).Return(fixtureObservations(), nil)
	src.On("TRVEDiff", mock.Anything).Return(fixtureDeltas(), nil)

	t.Run("option filter", func(t *testing.T) {
		resp, body := doCompare(t, src, "/api/compare?consumption=5000&option=HPHC")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, body.Rows, 1)
		assert.Equal(t, "Engie", body.Rows[0].Supplier)
		assert.Nil(t, body.Top)
	})

	t.Run("puissance filter", func(t *testing.T) {
		resp, body := doCompare(t, src, "/api/compare?consumption=5000&puissance=9")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, body.Rows, 1)
		assert.Equal(t, "Engie", body.Rows[0].Supplier)
	})

	t.Run("cheaper only", func(t *testing.T) {
		resp, body := doCompare(t, src, "/api/compare?consumption=5000&cheaperOnly=true")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		suppliers := make([]string, 0, len(body.Rows))
		for _, r := range body.Rows {
			suppliers = append(suppliers, r.Supplier)
		}
		assert.ElementsMatch(t, []string{"Cheap", "Engie"}, suppliers,
			"rows at or above the regulated tariff drop, rows without a comparison stay")
	})
}

func TestHandleCompareBadParams(t *testing.T) {
	src := &sourcemock.MockSource{}

	for _, target := range []string{
		"/api/compare?consumption=abc",
		"/api/compare?consumption=-5",
		"/api/compare?hcShare=120",
		"/api/compare?option=EJP",
		"/api/compare?puissance=7",
		"/api/compare?cheaperOnly=maybe",
	} {
		resp, _ := doCompare(t, src, target)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "target %s", target)
	}
	src.AssertNotCalled(t, "Tariffs", mock.Anything)
}

func TestHandleCompareFetchFailures(t *testing.T) {
	t.Run("tariff fetch failure fails the request", func(t *testing.T) {
		src := &sourcemock.MockSource{}
		src.On("Tariffs", mock.Anything).Return(nil, errors.New("backend down"))
		src.On("TRVEDiff", mock.Anything).Return(fixtureDeltas(), nil)

		resp, _ := doCompare(t, src, "/api/compare?consumption=5000")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("trve fetch failure degrades instead", func(t *testing.T) {
		src := &sourcemock.MockSource{}
		src.On("Tariffs", mock.Anything).Return(fixtureObservations(), nil)
		src.On("TRVEDiff", mock.Anything).Return(nil, errors.New("backend down"))

		resp, body := doCompare(t, src, "/api/compare?consumption=5000")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, body.TrveDiffError)
		require.Len(t, body.Rows, 3)
		for _, r := range body.Rows {
			assert.Nil(t, r.VsTRVE, "no partial delta figures when the delta list is unavailable")
		}
	})
}
