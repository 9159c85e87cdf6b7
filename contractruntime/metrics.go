// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contractruntime

import (
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"

	"github.com/meridianchain/meridian/metrics"
)

// Metrics receives the timings of block execution. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ExecBlock        metrics.HistogramMeter
	RunExecute       metrics.HistogramMeter
	ApplyEffect      metrics.HistogramMeter
	CommitStep       metrics.HistogramMeter
	Purge            metrics.HistogramMeter
	LatestCommitStep metrics.GaugeMeter
	ChainHeight      metrics.GaugeMeter
	ExecutedDeploys  metrics.CountVecMeter
}

// NewMetrics creates the meters on the global metrics service.
func NewMetrics() *Metrics {
	return &Metrics{
		ExecBlock:        metrics.Histogram("exec_block_ms", metrics.BucketExecute),
		RunExecute:       metrics.Histogram("run_execute_ms", metrics.BucketExecute),
		ApplyEffect:      metrics.Histogram("apply_effect_ms", metrics.BucketExecute),
		CommitStep:       metrics.Histogram("commit_step_ms", metrics.BucketExecute),
		Purge:            metrics.Histogram("purge_ms", metrics.BucketExecute),
		LatestCommitStep: metrics.Gauge("latest_commit_step_ms"),
		ChainHeight:      metrics.Gauge("chain_height"),
		ExecutedDeploys:  metrics.CounterVec("executed_deploys_count", []string{"outcome"}),
	}
}

func elapsedMs(start mclock.AbsTime) int64 {
	return time.Duration(mclock.Now() - start).Milliseconds()
}

func (m *Metrics) setChainHeight(height uint64) {
	if m != nil {
		m.ChainHeight.Set(int64(height))
	}
}

func (m *Metrics) setLatestCommitStep(ms int64) {
	if m != nil {
		m.LatestCommitStep.Set(ms)
	}
}

func (m *Metrics) countDeploy(outcome string) {
	if m != nil {
		m.ExecutedDeploys.AddWithLabel(1, map[string]string{"outcome": outcome})
	}
}
