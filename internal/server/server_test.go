package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/iv-solver/internal/impliedvol"
	"github.com/contactkeval/iv-solver/internal/metrics"
	"github.com/contactkeval/iv-solver/internal/pricing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := impliedvol.DefaultConfig()
	cfg.Bisection.MaxIter = 60
	srv := httptest.NewServer(NewHandler(cfg, impliedvol.MethodNewton, metrics.New()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPriceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/price", PriceRequest{
		Spot: 100, Strike: 100, Rate: 0.05, Tau: pricing.SecondsPerYear, Sigma: 0.2, IsCall: true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out PriceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.InDelta(t, 10.450583572185565, out.Price, 1e-9)
	assert.InDelta(t, out.Call, out.Price, 0)
	assert.InDelta(t, 5.573526022256971, out.Put, 1e-9)
	assert.InDelta(t, 0.35, out.D1, 1e-12)
}

func TestPriceEndpointRejectsZeroSigma(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/price", PriceRequest{
		Spot: 100, Strike: 100, Rate: 0.05, Tau: pricing.SecondsPerYear, Sigma: 0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestImpliedVolEndpoint(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method string
		want   impliedvol.Method
		delta  float64
	}{
		{"", impliedvol.MethodNewton, 1e-6},
		{"bisection", impliedvol.MethodBisection, 1e-6},
		{"grid", impliedvol.MethodBruteForce, 1e-3},
	}

	for _, tc := range cases {
		t.Run(string(tc.want), func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/iv", ImpliedVolRequest{
				Inputs: impliedvol.Inputs{
					Spot: 100, Strike: 115, Rate: 0.05, Tau: pricing.SecondsPerYear, Market: 18, IsCall: true,
				},
				Method: tc.method,
			})
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out struct {
				Method string  `json:"method"`
				Sigma  float64 `json:"sigma"`
				Status string  `json:"status"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, string(tc.want), out.Method)
			assert.Equal(t, "converged", out.Status)
			assert.InDelta(t, 0.5428424065162359, out.Sigma, tc.delta)
		})
	}
}

func TestImpliedVolEndpointErrors(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/iv", ImpliedVolRequest{
		Inputs: impliedvol.Inputs{Spot: 100, Strike: 115, Rate: 0.05, Tau: 0, Market: 18, IsCall: true},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/v1/iv", ImpliedVolRequest{
		Inputs: impliedvol.Inputs{Spot: 100, Strike: 115, Rate: 0.05, Tau: 1, Market: 18, IsCall: true},
		Method: "secant",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad, err := http.Post(srv.URL+"/v1/iv", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv.URL+"/v1/iv", ImpliedVolRequest{
		Inputs: impliedvol.Inputs{Spot: 100, Strike: 115, Rate: 0.05, Tau: pricing.SecondsPerYear, Market: 18, IsCall: false},
	})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `ivsolver_solves_total{method="newton",status="converged"} 1`)
}
