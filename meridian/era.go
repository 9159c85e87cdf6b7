// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package meridian

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EraID is the monotonic counter of eras.
type EraID uint64

// Successor returns the next era id, saturating at the maximum value.
func (e EraID) Successor() EraID {
	if e == math.MaxUint64 {
		return e
	}
	return e + 1
}

// Predecessor returns the previous era id. ok is false for era 0.
func (e EraID) Predecessor() (prev EraID, ok bool) {
	if e == 0 {
		return 0, false
	}
	return e - 1, true
}

// IsGenesis returns whether it's the very first era.
func (e EraID) IsGenesis() bool {
	return e == 0
}

func (e EraID) String() string {
	return "era " + strconv.FormatUint(uint64(e), 10)
}

// Timestamp milliseconds since unix epoch.
type Timestamp uint64

// ProtocolVersion semantic version of the protocol a block is executed with.
type ProtocolVersion struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// V1_0_0 the initial protocol version.
var V1_0_0 = ProtocolVersion{Major: 1}

func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalText implements encoding.TextMarshaler.
func (v ProtocolVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *ProtocolVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocolVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseProtocolVersion parses "major.minor.patch".
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ProtocolVersion{}, errors.New("invalid protocol version")
	}
	var nums [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return ProtocolVersion{}, errors.WithMessage(err, "protocol version")
		}
		nums[i] = uint32(n)
	}
	return ProtocolVersion{nums[0], nums[1], nums[2]}, nil
}
