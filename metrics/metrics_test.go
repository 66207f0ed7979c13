// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) (int, string) {
	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// The noop case has to run first since prometheus cannot be switched off again.
func TestMetrics(t *testing.T) {
	t.Run("noop", func(t *testing.T) {
		Counter("noop_count").Add(1)
		GaugeVec("noop_gauge", []string{"k"}).SetWithLabel(3, map[string]string{"k": "v"})

		code, _ := scrape(t)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("prometheus", func(t *testing.T) {
		InitializePrometheusMetrics()
		InitializePrometheusMetrics()

		lazy := LazyLoadCounter("claims_count")
		lazy().Add(2)
		Counter("claims_count").Add(3)
		assert.Same(t, lazy(), Counter("claims_count"))

		CounterVec("calls_count", []string{"method"}).AddWithLabel(1, map[string]string{"method": "claim"})
		Gauge("open_bribes").Set(7)
		GaugeVec("period", []string{"bribe"}).SetWithLabel(4, map[string]string{"bribe": "0"})
		HistogramVec("duration_ms", []string{"method"}, BucketHTTPReqs).
			ObserveWithLabels(12, map[string]string{"method": "GET"})

		code, body := scrape(t)
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "votemarket_claims_count 5")
		assert.Contains(t, body, `votemarket_calls_count{method="claim"} 1`)
		assert.Contains(t, body, "votemarket_open_bribes 7")
		assert.Contains(t, body, `votemarket_period{bribe="0"} 4`)
		assert.Contains(t, body, "votemarket_duration_ms_bucket")
	})
}
