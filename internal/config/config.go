package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	if value.Value == "" {
		d.Duration = 0
		return nil
	}
	if value.Tag == "!!int" {
		var v int64
		if err := value.Decode(&v); err != nil {
			return err
		}
		d.Duration = time.Duration(v) * time.Millisecond
		return nil
	}
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = dur
	return nil
}

type Config struct {
	Chain   string `yaml:"chain"`
	ChainID uint64 `yaml:"chain_id"`

	RPC struct {
		HTTP string `yaml:"http"`
	} `yaml:"rpc"`

	RouterAddress        string `yaml:"router_address"`
	FactoryAddress       string `yaml:"factory_address"`
	NativeAddress        string `yaml:"native_address"`
	WrappedNativeAddress string `yaml:"wrapped_native_address"`

	Swap struct {
		DefaultSlippagePercent uint32  `yaml:"default_slippage_percent"`
		FeeBps                 uint32  `yaml:"fee_bps"`
		GasLimitMultiplier     float64 `yaml:"gas_limit_multiplier"`
		FallbackGasLimit       uint64  `yaml:"fallback_gas_limit"`
	} `yaml:"swap"`

	Performance struct {
		RequestTimeout Duration `yaml:"request_timeout"`
		RetryMax       int      `yaml:"retry_max"`
		RetryBackoff   Duration `yaml:"retry_backoff"`
	} `yaml:"performance"`

	API struct {
		Listen        string `yaml:"listen"`
		AuthToken     string `yaml:"auth_token"`
		RatePerMinute int    `yaml:"rate_per_minute"`
		EnableMetrics bool   `yaml:"enable_metrics"`
	} `yaml:"api"`

	TokenList struct {
		URL string `yaml:"url"`
	} `yaml:"token_list"`
}

// Options are the settings a caller may inject on top of a file or preset.
// Zero values leave the current setting untouched.
type Options struct {
	ChainID       uint64
	RPCURL        string
	RouterAddress string
}

// Load reads a YAML config file. An empty path yields the defaults for the
// chain selected by opts (BSC when unset).
func Load(path string, opts Options) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, err
		}
	}
	cfg.Apply(opts)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated config for a chain preset.
func Default(opts Options) (*Config, error) {
	return Load("", opts)
}

func (c *Config) Apply(opts Options) {
	if opts.ChainID != 0 {
		if c.ChainID != 0 && c.ChainID != opts.ChainID {
			// Preset-derived fields belong to the old chain.
			c.Chain = ""
			c.WrappedNativeAddress = ""
			c.Swap.FeeBps = 0
		}
		c.ChainID = opts.ChainID
	}
	if opts.RPCURL != "" {
		c.RPC.HTTP = opts.RPCURL
	}
	if opts.RouterAddress != "" {
		c.RouterAddress = opts.RouterAddress
	}
}

func (c *Config) applyDefaults() {
	if c.ChainID == 0 {
		if p, ok := presetByName(c.Chain); ok {
			c.ChainID = p.ChainID
		} else {
			c.ChainID = ChainBSC
		}
	}
	p, hasPreset := presets[c.ChainID]
	if c.Chain == "" {
		if hasPreset {
			c.Chain = p.Name
		} else {
			c.Chain = fmt.Sprintf("chain-%d", c.ChainID)
		}
	}
	if hasPreset {
		if c.RPC.HTTP == "" {
			c.RPC.HTTP = p.RPC
		}
		if c.RouterAddress == "" {
			c.RouterAddress = p.Router
		}
		if c.WrappedNativeAddress == "" {
			c.WrappedNativeAddress = p.WrappedNative
		}
		if c.Swap.FeeBps == 0 {
			c.Swap.FeeBps = p.FeeBps
		}
	}
	if c.NativeAddress == "" {
		c.NativeAddress = NativeSentinel
	}
	if c.Swap.DefaultSlippagePercent == 0 {
		c.Swap.DefaultSlippagePercent = 1
	}
	if c.Swap.FeeBps == 0 {
		c.Swap.FeeBps = 30
	}
	if c.Swap.GasLimitMultiplier == 0 {
		c.Swap.GasLimitMultiplier = 1.2
	}
	if c.Swap.FallbackGasLimit == 0 {
		c.Swap.FallbackGasLimit = 21000000
	}
	if c.Performance.RequestTimeout.Duration == 0 {
		c.Performance.RequestTimeout = Duration{Duration: 15 * time.Second}
	}
	if c.Performance.RetryMax == 0 {
		c.Performance.RetryMax = 3
	}
	if c.Performance.RetryBackoff.Duration == 0 {
		c.Performance.RetryBackoff = Duration{Duration: 500 * time.Millisecond}
	}
	if c.API.Listen == "" {
		c.API.Listen = ":8080"
	}
	if c.TokenList.URL == "" && hasPreset {
		c.TokenList.URL = p.TokenList
	}
}

func (c *Config) validate() error {
	if c.RPC.HTTP == "" {
		return fmt.Errorf("rpc.http is required")
	}
	if err := requireAddress("router_address", c.RouterAddress); err != nil {
		return err
	}
	if err := requireAddress("wrapped_native_address", c.WrappedNativeAddress); err != nil {
		return err
	}
	if err := requireAddress("native_address", c.NativeAddress); err != nil {
		return err
	}
	if c.FactoryAddress != "" && !common.IsHexAddress(c.FactoryAddress) {
		return fmt.Errorf("factory_address %q is not a valid address", c.FactoryAddress)
	}
	if c.Swap.FeeBps >= 10000 {
		return fmt.Errorf("swap.fee_bps must be < 10000")
	}
	if c.Swap.GasLimitMultiplier < 1 {
		return fmt.Errorf("swap.gas_limit_multiplier must be >= 1")
	}
	return nil
}

func requireAddress(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%s %q is not a valid address", field, value)
	}
	return nil
}

func (c *Config) Router() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

func (c *Config) WrappedNative() common.Address {
	return common.HexToAddress(c.WrappedNativeAddress)
}

// Factory returns the configured factory, or false when it has to be read
// from the router.
func (c *Config) Factory() (common.Address, bool) {
	if c.FactoryAddress == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.FactoryAddress), true
}
