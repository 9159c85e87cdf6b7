// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package datagen generates random test data.
package datagen

import (
	"crypto/rand"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

func RandomHash() meridian.Bytes32 {
	var b32 meridian.Bytes32

	rand.Read(b32[:])
	return b32
}

// RandomURef returns a random uref key.
func RandomURef() state.Key {
	return state.URefKey(RandomHash())
}
