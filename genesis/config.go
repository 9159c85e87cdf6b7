// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/meridianchain/meridian/meridian"
)

// Amount is a big integer written as a decimal string or number in yaml.
type Amount struct {
	big.Int
}

// NewAmount creates an amount.
func NewAmount(v int64) *Amount {
	var a Amount
	a.SetInt64(v)
	return &a
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: amount must be a scalar", value.Line)
	}
	if _, ok := a.SetString(value.Value, 0); !ok {
		return errors.Errorf("line %d: invalid amount %q", value.Line, value.Value)
	}
	if a.Sign() < 0 {
		return errors.Errorf("line %d: negative amount %q", value.Line, value.Value)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a *Amount) MarshalYAML() (any, error) {
	return a.String(), nil
}

// Account is a genesis account, optionally bonded as a validator.
type Account struct {
	PublicKey      meridian.PublicKey `yaml:"public_key"`
	Balance        *Amount            `yaml:"balance"`
	BondedAmount   *Amount            `yaml:"bonded_amount,omitempty"`
	DelegationRate uint8              `yaml:"delegation_rate,omitempty"`
}

// Config describes the genesis state.
type Config struct {
	Timestamp       meridian.Timestamp       `yaml:"timestamp"`
	ProtocolVersion meridian.ProtocolVersion `yaml:"protocol_version"`
	ValidatorSlots  uint32                   `yaml:"validator_slots"`
	AuctionDelay    uint64                   `yaml:"auction_delay"`
	Accounts        []Account                `yaml:"accounts"`
}

// LoadConfig reads the genesis config from a yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a yaml genesis config.
// Zero validator slots or auction delay take the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := Config{ProtocolVersion: meridian.V1_0_0}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	if cfg.ValidatorSlots == 0 {
		cfg.ValidatorSlots = meridian.DefaultValidatorSlots
	}
	if cfg.AuctionDelay == 0 {
		cfg.AuctionDelay = meridian.DefaultAuctionDelay
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the accounts.
func (c *Config) Validate() error {
	seen := make(map[meridian.PublicKey]struct{}, len(c.Accounts))
	validators := 0
	for i, acc := range c.Accounts {
		if acc.PublicKey.IsZero() {
			return errors.Errorf("account %d: missing public key", i)
		}
		if _, ok := seen[acc.PublicKey]; ok {
			return errors.Errorf("account %d: duplicated public key %v", i, acc.PublicKey)
		}
		seen[acc.PublicKey] = struct{}{}
		if acc.BondedAmount != nil && acc.BondedAmount.Sign() > 0 {
			validators++
		}
	}
	if validators == 0 {
		return errors.New("no genesis validator")
	}
	return nil
}
