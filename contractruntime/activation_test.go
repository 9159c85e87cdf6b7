// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contractruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianchain/meridian/meridian"
)

func TestActivationPoint(t *testing.T) {
	p := EraActivation(7)
	era, ok := p.EraID()
	assert.True(t, ok)
	assert.Equal(t, meridian.EraID(7), era)
	assert.False(t, p.IsGenesis())
	assert.Equal(t, "era 7", p.String())

	g := GenesisActivation(1234)
	_, ok = g.EraID()
	assert.False(t, ok)
	assert.True(t, g.IsGenesis())
	assert.Equal(t, meridian.Timestamp(1234), g.Timestamp())
	assert.Equal(t, "genesis(1234)", g.String())
}
