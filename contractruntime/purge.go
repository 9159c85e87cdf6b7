// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contractruntime

import (
	"math/bits"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

// CalculatePurgeEras returns the era info keys to purge at currentHeight.
// Eras [0, activationEraID) are split into batches of batchSize, and the
// n-th block after activationHeight purges the n-th batch. It returns nil
// when there is nothing left to purge or on any overflow.
func CalculatePurgeEras(activationEraID meridian.EraID, activationHeight, currentHeight, batchSize uint64) []state.Key {
	if batchSize == 0 {
		return nil
	}
	if currentHeight < activationHeight {
		return nil
	}
	offset := currentHeight - activationHeight

	hi, start := bits.Mul64(offset, batchSize)
	if hi != 0 {
		return nil
	}
	end, carry := bits.Add64(start, batchSize, 0)
	if carry != 0 {
		return nil
	}
	end = min(end, uint64(activationEraID))
	if start >= end {
		return nil
	}

	keys := make([]state.Key, 0, end-start)
	for era := start; era < end; era++ {
		keys = append(keys, state.EraInfoKey(meridian.EraID(era)))
	}
	return keys
}
