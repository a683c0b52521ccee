package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. RISKCALC_HISTORY_TYPE.
const EnvPrefix = "RISKCALC"

// Config is the complete calculator configuration.
type Config struct {
	Symbols  map[string]SymbolLimits `json:"symbols" yaml:"symbols"`
	Defaults DefaultsConfig          `json:"defaults" yaml:"defaults"`
	History  HistoryConfig           `json:"history" yaml:"history"`
	Log      LogConfig               `json:"log" yaml:"log"`
	Server   ServerConfig            `json:"server" yaml:"server"`
}

// SymbolLimits are the exchange order constraints for one symbol.
type SymbolLimits struct {
	UsdtStep     float64 `json:"usdt_step" yaml:"usdt_step"`
	MinOrderUsdt float64 `json:"min_order_usdt" yaml:"min_order_usdt"`
}

// DefaultsConfig pre-fills a blank calculation form.
type DefaultsConfig struct {
	Symbol         string  `json:"symbol" yaml:"symbol"`
	RiskAmountUsdt float64 `json:"risk_amount_usdt" yaml:"risk_amount_usdt"`
	FeeRatePct     float64 `json:"fee_rate_pct" yaml:"fee_rate_pct"`
	Entry1Ratio    float64 `json:"entry1_ratio" yaml:"entry1_ratio"`
}

// HistoryConfig selects where recent calculations are kept.
type HistoryConfig struct {
	Type     string `json:"type" yaml:"type"` // "sqlite", "file" or "memory"
	DBPath   string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// fallbackLimits applies when neither the symbol nor the default symbol
// has a preset.
var fallbackLimits = SymbolLimits{UsdtStep: 1, MinOrderUsdt: 5}

// LoadFromFile loads configuration from a YAML or JSON file and applies
// RISKCALC_* environment overrides. An empty path loads the defaults
// plus environment.
func LoadFromFile(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	setDefaults(v, def)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "yml" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Viper folds map keys to lower case.
	cfg.Symbols = normalizeSymbols(cfg.Symbols)
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = def.Symbols
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("defaults.symbol", c.Defaults.Symbol)
	v.SetDefault("defaults.risk_amount_usdt", c.Defaults.RiskAmountUsdt)
	v.SetDefault("defaults.fee_rate_pct", c.Defaults.FeeRatePct)
	v.SetDefault("defaults.entry1_ratio", c.Defaults.Entry1Ratio)
	v.SetDefault("history.type", c.History.Type)
	v.SetDefault("history.db_path", c.History.DBPath)
	v.SetDefault("history.file_path", c.History.FilePath)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("server.addr", c.Server.Addr)
}

func normalizeSymbols(in map[string]SymbolLimits) map[string]SymbolLimits {
	out := make(map[string]SymbolLimits, len(in))
	for k, v := range in {
		out[normalizeSymbol(k)] = v
	}
	return out
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols: at least one symbol preset is required")
	}
	for _, name := range c.SymbolNames() {
		l := c.Symbols[name]
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("symbols: empty symbol name")
		}
		if l.UsdtStep <= 0 {
			return fmt.Errorf("symbols.%s.usdt_step must be positive", name)
		}
		if l.MinOrderUsdt <= 0 {
			return fmt.Errorf("symbols.%s.min_order_usdt must be positive", name)
		}
	}

	if strings.TrimSpace(c.Defaults.Symbol) == "" {
		return fmt.Errorf("defaults.symbol is required")
	}
	if c.Defaults.RiskAmountUsdt <= 0 {
		return fmt.Errorf("defaults.risk_amount_usdt must be positive")
	}
	if c.Defaults.FeeRatePct < 0 {
		return fmt.Errorf("defaults.fee_rate_pct must not be negative")
	}
	if c.Defaults.Entry1Ratio < 0 || c.Defaults.Entry1Ratio > 100 {
		return fmt.Errorf("defaults.entry1_ratio must be between 0 and 100")
	}

	switch c.History.Type {
	case "sqlite":
		if c.History.DBPath == "" {
			return fmt.Errorf("history db_path required for sqlite type")
		}
	case "file":
		if c.History.FilePath == "" {
			return fmt.Errorf("history file_path required for file type")
		}
	case "memory":
	default:
		return fmt.Errorf("history.type must be 'sqlite', 'file' or 'memory'")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// Limits returns the order constraints for symbol, falling back to the
// default symbol's preset and then to a 1 USDT step with a 5 USDT minimum.
func (c *Config) Limits(symbol string) SymbolLimits {
	if l, ok := c.Symbols[normalizeSymbol(symbol)]; ok {
		return l
	}
	if l, ok := c.Symbols[normalizeSymbol(c.Defaults.Symbol)]; ok {
		return l
	}
	return fallbackLimits
}

// SymbolNames returns the configured symbols in sorted order.
func (c *Config) SymbolNames() []string {
	names := make([]string, 0, len(c.Symbols))
	for k := range c.Symbols {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Symbols: map[string]SymbolLimits{
			"BTCUSDT": {UsdtStep: 1, MinOrderUsdt: 5},
			"ETHUSDT": {UsdtStep: 1, MinOrderUsdt: 5},
		},
		Defaults: DefaultsConfig{
			Symbol:         "BTCUSDT",
			RiskAmountUsdt: 300,
			FeeRatePct:     0.04,
			Entry1Ratio:    100,
		},
		History: HistoryConfig{
			Type:     "file",
			FilePath: "./riskcalc-history.json",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
