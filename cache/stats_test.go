// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsHitRateChange(t *testing.T) {
	var s Stats

	changed, hit, miss := s.Stats()
	assert.False(t, changed, "no lookup yet")
	assert.Zero(t, hit)
	assert.Zero(t, miss)

	s.Miss()
	s.Hit()
	changed, hit, miss = s.Stats()
	assert.True(t, changed)
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)

	// same rate
	s.Miss()
	s.Hit()
	changed, _, _ = s.Stats()
	assert.False(t, changed)

	for range 8 {
		s.Hit()
	}
	changed, hit, miss = s.Stats()
	assert.True(t, changed)
	assert.Equal(t, int64(10), hit)
	assert.Equal(t, int64(2), miss)
}

func TestHitRate(t *testing.T) {
	assert.Equal(t, "n/a", HitRate(0, 0))
	assert.Equal(t, "50.000%", HitRate(1, 2))
	assert.Equal(t, "100.000%", HitRate(3, 3))
}
