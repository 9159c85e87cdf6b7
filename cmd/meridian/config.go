// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/meridianchain/meridian/contractruntime"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/meridian"
)

// Config is the node config file.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	Genesis string        `yaml:"genesis"`
	Engine  EngineConfig  `yaml:"engine"`
	Purge   PurgeConfig   `yaml:"purge"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type EngineConfig struct {
	MaxQueryDepth uint64 `yaml:"max_query_depth"`
	TransferCost  uint64 `yaml:"transfer_cost"`
	NativeOpCost  uint64 `yaml:"native_op_cost"`
}

// PurgeConfig controls the removal of historical era info. Without an
// activation era the network is treated as activated at genesis and
// nothing is purged.
type PurgeConfig struct {
	BatchSize                  uint64              `yaml:"batch_size"`
	ActivationEra              *uint64             `yaml:"activation_era"`
	ActivationHeight           *uint64             `yaml:"activation_height"`
	ActivationGenesisTimestamp *meridian.Timestamp `yaml:"activation_genesis_timestamp"`
}

type APIConfig struct {
	Addr              string `yaml:"addr"`
	Cors              string `yaml:"cors"`
	AllowGetAllValues bool   `yaml:"allow_get_all_values"`
	AllowGetTrie      bool   `yaml:"allow_get_trie"`
	EnableReqLogger   bool   `yaml:"enable_req_logger"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LogConfig struct {
	Verbosity int  `yaml:"verbosity"`
	JSON      bool `yaml:"json"`
}

func defaultConfig() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Engine: EngineConfig{
			MaxQueryDepth: meridian.DefaultMaxQueryDepth,
			TransferCost:  meridian.DefaultTransferCost,
			NativeOpCost:  meridian.DefaultNativeOpCost,
		},
		Purge: PurgeConfig{
			BatchSize: meridian.DefaultPurgeBatchSize,
		},
		API: APIConfig{
			Addr: "localhost:8669",
		},
		Metrics: MetricsConfig{
			Addr: "localhost:2112",
		},
		Log: LogConfig{
			Verbosity: 3,
		},
	}
}

// loadConfig reads the config file over the defaults. An empty path
// returns the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is empty")
	}
	if c.Engine.MaxQueryDepth == 0 {
		return errors.New("engine.max_query_depth must be positive")
	}
	if c.Purge.ActivationEra != nil && c.Purge.ActivationGenesisTimestamp != nil {
		return errors.New("purge: activation_era and activation_genesis_timestamp are exclusive")
	}
	return nil
}

func (c *Config) engineConfig() engine.Config {
	return engine.Config{
		MaxQueryDepth: c.Engine.MaxQueryDepth,
		TransferCost:  c.Engine.TransferCost,
		NativeOpCost:  c.Engine.NativeOpCost,
	}
}

// runtimeConfig builds the runtime config. genesisTimestamp is used when
// the activation point is genesis and no timestamp is configured.
func (c *Config) runtimeConfig(protocolVersion meridian.ProtocolVersion, genesisTimestamp meridian.Timestamp) contractruntime.Config {
	activation := contractruntime.GenesisActivation(genesisTimestamp)
	switch {
	case c.Purge.ActivationEra != nil:
		activation = contractruntime.EraActivation(meridian.EraID(*c.Purge.ActivationEra))
	case c.Purge.ActivationGenesisTimestamp != nil:
		activation = contractruntime.GenesisActivation(*c.Purge.ActivationGenesisTimestamp)
	}
	return contractruntime.Config{
		ProtocolVersion:  protocolVersion,
		ActivationPoint:  activation,
		ActivationHeight: c.Purge.ActivationHeight,
		PurgeBatchSize:   c.Purge.BatchSize,
	}
}
