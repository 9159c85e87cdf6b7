// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package meridian

// Constants of the engine.
const (
	DefaultMaxQueryDepth  = uint64(5)
	DefaultPurgeBatchSize = uint64(5)

	DefaultValidatorSlots = uint32(100)
	DefaultAuctionDelay   = uint64(1)

	DefaultTransferCost = uint64(100_000_000)
	DefaultNativeOpCost = uint64(10_000)

	// MaxNamedKeyLength bounds the length of a named key, which is a path segment of queries.
	MaxNamedKeyLength = 256
)
