// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package meridian

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEraID(t *testing.T) {
	assert.Equal(t, EraID(6), EraID(5).Successor())
	assert.Equal(t, EraID(math.MaxUint64), EraID(math.MaxUint64).Successor())

	prev, ok := EraID(5).Predecessor()
	assert.True(t, ok)
	assert.Equal(t, EraID(4), prev)

	_, ok = EraID(0).Predecessor()
	assert.False(t, ok)
	assert.True(t, EraID(0).IsGenesis())
	assert.Equal(t, "era 7", EraID(7).String())
}

func TestProtocolVersion(t *testing.T) {
	v, err := ParseProtocolVersion("1.4.15")
	assert.NoError(t, err)
	assert.Equal(t, ProtocolVersion{1, 4, 15}, v)
	assert.Equal(t, "1.4.15", v.String())

	for _, bad := range []string{"", "1.2", "1.2.x", "1.2.3.4"} {
		_, err := ParseProtocolVersion(bad)
		assert.Error(t, err, bad)
	}
}
