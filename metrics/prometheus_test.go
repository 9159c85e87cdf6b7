// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	m := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		m[mf.GetName()] = mf
	}
	return m
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	count := Counter("blocks_count")
	countVec := CounterVec("deploys_count", []string{"outcome"})
	hist := Histogram("exec_ms", Bucket10s)
	histVec := HistogramVec("phase_ms", []string{"phase"}, nil)
	gauge := Gauge("height")
	gaugeVec := GaugeVec("cache", []string{"event"})

	// same instance on second lookup
	require.Same(t, count, Counter("blocks_count"))

	count.Add(3)
	histTotal := 0
	for i := range 10 {
		hist.Observe(int64(i))
		histVec.ObserveWithLabels(int64(i), map[string]string{"phase": strconv.Itoa(i % 2)})
		countVec.AddWithLabel(1, map[string]string{"outcome": strconv.Itoa(i % 2)})
		histTotal += i
	}
	gauge.Set(10)
	gauge.Add(2)
	gaugeVec.SetWithLabel(5, map[string]string{"event": "hit"})
	gaugeVec.AddWithLabel(1, map[string]string{"event": "hit"})

	m := gather(t)
	require.Equal(t, float64(3), m["meridian_metrics_blocks_count"].Metric[0].GetCounter().GetValue())
	require.Equal(t, float64(histTotal), m["meridian_metrics_exec_ms"].Metric[0].GetHistogram().GetSampleSum())
	require.Len(t, m["meridian_metrics_phase_ms"].Metric, 2)
	require.Equal(t,
		float64(10),
		m["meridian_metrics_deploys_count"].Metric[0].GetCounter().GetValue()+
			m["meridian_metrics_deploys_count"].Metric[1].GetCounter().GetValue())
	require.Equal(t, float64(12), m["meridian_metrics_height"].Metric[0].GetGauge().GetValue())
	require.Equal(t, float64(6), m["meridian_metrics_cache"].Metric[0].GetGauge().GetValue())
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics() // make sure it starts in the default state of noopMeter

	for _, a := range []any{
		Gauge("noopGauge"),
		GaugeVec("noopGauge", nil),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		Histogram("noopHist", nil),
		HistogramVec("noopHist", nil, nil),
	} {
		require.IsType(t, &noopMeters{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyGaugeVec := LazyLoadGaugeVec("lazyGaugeVec", nil)
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	// after initialization, newly created metrics become of the prometheus type
	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promGaugeVecMeter{}, lazyGaugeVec())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}
