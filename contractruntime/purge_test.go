// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contractruntime

import (
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

func eraKeys(eras ...meridian.EraID) []state.Key {
	keys := make([]state.Key, 0, len(eras))
	for _, e := range eras {
		keys = append(keys, state.EraInfoKey(e))
	}
	return keys
}

func TestCalculatePurgeEras(t *testing.T) {
	tests := []struct {
		name             string
		era              meridian.EraID
		activationHeight uint64
		height           uint64
		batch            uint64
		want             []state.Key
	}{
		{"first batch", 5, 50, 50, 2, eraKeys(0, 1)},
		{"second batch", 5, 50, 51, 2, eraKeys(2, 3)},
		{"last partial batch", 5, 50, 52, 2, eraKeys(4)},
		{"done", 5, 50, 53, 2, nil},
		{"far after", 5, 50, 1000, 2, nil},
		{"before activation", 5, 50, 49, 2, nil},
		{"zero batch", 5, 50, 50, 0, nil},
		{"zero batch at max", math.MaxUint64, 0, math.MaxUint64, 0, nil},
		{"zero batch max activation", 5, math.MaxUint64, math.MaxUint64, 0, nil},
		{"zero batch before activation", 5, math.MaxUint64, 0, 0, nil},
		{"genesis era", 0, 50, 50, 2, nil},
		{"batch larger than eras", 3, 10, 10, 100, eraKeys(0, 1, 2)},
		{"start overflows", 5, 0, math.MaxUint64, 2, nil},
		{"end overflows", math.MaxUint64, 0, 1, math.MaxUint64, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePurgeEras(tt.era, tt.activationHeight, tt.height, tt.batch)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculatePurgeErasCoversEachEraOnce(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for range 200 {
		var (
			era              uint8
			batch            uint8
			activationHeight uint32
		)
		f.Fuzz(&era)
		f.Fuzz(&batch)
		f.Fuzz(&activationHeight)
		if batch == 0 {
			batch = 1
		}

		seen := make(map[state.Key]int)
		for h := uint64(activationHeight); h <= uint64(activationHeight)+uint64(era)+1; h++ {
			keys := CalculatePurgeEras(meridian.EraID(era), uint64(activationHeight), h, uint64(batch))
			assert.LessOrEqual(t, len(keys), int(batch))
			for _, k := range keys {
				seen[k]++
			}
		}
		assert.Len(t, seen, int(era))
		for e := range meridian.EraID(era) {
			assert.Equal(t, 1, seen[state.EraInfoKey(e)], "era %d", e)
		}
	}
}
