// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contractruntime

import (
	"fmt"

	"github.com/meridianchain/meridian/meridian"
)

// ActivationPoint is where the current protocol version took effect: an
// era, or genesis.
type ActivationPoint struct {
	genesis   bool
	era       meridian.EraID
	timestamp meridian.Timestamp
}

// EraActivation returns an activation point at the era.
func EraActivation(era meridian.EraID) ActivationPoint {
	return ActivationPoint{era: era}
}

// GenesisActivation returns an activation point at genesis.
func GenesisActivation(timestamp meridian.Timestamp) ActivationPoint {
	return ActivationPoint{genesis: true, timestamp: timestamp}
}

// EraID returns the activation era. ok is false for genesis.
func (p ActivationPoint) EraID() (era meridian.EraID, ok bool) {
	return p.era, !p.genesis
}

// IsGenesis returns whether the activation point is genesis.
func (p ActivationPoint) IsGenesis() bool { return p.genesis }

// Timestamp returns the genesis timestamp.
func (p ActivationPoint) Timestamp() meridian.Timestamp { return p.timestamp }

func (p ActivationPoint) String() string {
	if p.genesis {
		return fmt.Sprintf("genesis(%d)", p.timestamp)
	}
	return p.era.String()
}
