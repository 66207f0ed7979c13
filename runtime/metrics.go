// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"time"

	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/metrics"
)

var (
	metricCallCount    = metrics.LazyLoadCounterVec("runtime_call_count", []string{"method", "result"})
	metricCallDuration = metrics.LazyLoadHistogramVec("runtime_call_duration_ms", []string{"contract"}, metrics.BucketHTTPReqs)
)

func observe(call *builtin.Call, start time.Time, err error) {
	result := "committed"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		result = "reverted"
	default:
		result = "failed"
	}
	metricCallCount().AddWithLabel(1, map[string]string{"method": call.Contract + "." + call.Method, "result": result})
	metricCallDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"contract": call.Contract})
}
