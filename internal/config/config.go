// Package config resolves the service configuration.
//
// Values come from, in increasing precedence: built-in defaults, COLORVAL_*
// environment variables, the TOML config file, and command line flags. The
// environment layer is decoded with envconfig and installed as viper defaults,
// so the file and flags bound through viper override it naturally.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ironsheep/color-validator-mcp/internal/imaging"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
	"github.com/ironsheep/color-validator-mcp/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. COLORVAL_LOG_LEVEL.
const EnvPrefix = "COLORVAL"

// DefaultConfigPath is the config file looked up when --config is not given.
// The ".toml" extension is optional.
const DefaultConfigPath = "~/.color-validator-mcp"

// Keys shared by the config file, viper and the command line flags.
const (
	KeyLogLevel         = "log-level"
	KeyLogDst           = "log-dst"
	KeyStore            = "store"
	KeyWorkers          = "workers"
	KeyDefaultTolerance = "default-tolerance"
	KeyExtractCount     = "extract.count"
	KeyExtractMethod    = "extract.method"
	KeyExtractThreshold = "extract.threshold"
	KeyExtractMaxSize   = "extract.max-size"
	KeyAreaThreshold    = "policy.area-threshold"
	KeyStrictFactor     = "policy.strict-factor"
	KeyLenientFactor    = "policy.lenient-factor"
)

// Config is the resolved configuration.
type Config struct {
	LogLevel         string  `envconfig:"LOG_LEVEL" default:"info"`
	LogDst           string  `envconfig:"LOG_DST" default:"stderr"`
	Store            string  `envconfig:"STORE" default:"~/.color-validator-mcp/store.yml"`
	Workers          int     `envconfig:"WORKERS" default:"0"`
	DefaultTolerance float64 `envconfig:"DEFAULT_TOLERANCE" default:"3.0"`
	ExtractCount     int     `envconfig:"EXTRACT_COUNT" default:"5"`
	ExtractMethod    string  `envconfig:"EXTRACT_METHOD" default:"group"`
	ExtractThreshold int     `envconfig:"EXTRACT_THRESHOLD" default:"25"`
	ExtractMaxSize   int     `envconfig:"EXTRACT_MAX_SIZE" default:"200"`
	AreaThreshold    float64 `envconfig:"POLICY_AREA_THRESHOLD" default:"30"`
	StrictFactor     float64 `envconfig:"POLICY_STRICT_FACTOR" default:"0.9"`
	LenientFactor    float64 `envconfig:"POLICY_LENIENT_FACTOR" default:"1.1"`
}

// FromEnv decodes the COLORVAL_* environment over the built-in defaults.
func FromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}
	return c, nil
}

// SetDefaults installs c as the lowest-precedence values of v.
func SetDefaults(v *viper.Viper, c Config) {
	v.SetDefault(KeyLogLevel, c.LogLevel)
	v.SetDefault(KeyLogDst, c.LogDst)
	v.SetDefault(KeyStore, c.Store)
	v.SetDefault(KeyWorkers, c.Workers)
	v.SetDefault(KeyDefaultTolerance, c.DefaultTolerance)
	v.SetDefault(KeyExtractCount, c.ExtractCount)
	v.SetDefault(KeyExtractMethod, c.ExtractMethod)
	v.SetDefault(KeyExtractThreshold, c.ExtractThreshold)
	v.SetDefault(KeyExtractMaxSize, c.ExtractMaxSize)
	v.SetDefault(KeyAreaThreshold, c.AreaThreshold)
	v.SetDefault(KeyStrictFactor, c.StrictFactor)
	v.SetDefault(KeyLenientFactor, c.LenientFactor)
}

// ReadFile points v at the TOML config file at path and reads it. A missing
// file is not an error; found reports whether one was read.
func ReadFile(v *viper.Viper, path string) (found bool, err error) {
	if path == "" {
		path = DefaultConfigPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return false, fmt.Errorf("unable to expand %s: %w", path, err)
	}

	name := filepath.Base(expanded)
	if ext := filepath.Ext(name); ext == ".toml" {
		name = name[:len(name)-len(ext)]
	}

	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Dir(expanded))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		return false, fmt.Errorf("unable to read config file: %w", err)
	}
	return true, nil
}

// Load reads the resolved configuration out of v and validates it.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		LogLevel:         v.GetString(KeyLogLevel),
		LogDst:           v.GetString(KeyLogDst),
		Store:            v.GetString(KeyStore),
		Workers:          v.GetInt(KeyWorkers),
		DefaultTolerance: v.GetFloat64(KeyDefaultTolerance),
		ExtractCount:     v.GetInt(KeyExtractCount),
		ExtractMethod:    v.GetString(KeyExtractMethod),
		ExtractThreshold: v.GetInt(KeyExtractThreshold),
		ExtractMaxSize:   v.GetInt(KeyExtractMaxSize),
		AreaThreshold:    v.GetFloat64(KeyAreaThreshold),
		StrictFactor:     v.GetFloat64(KeyStrictFactor),
		LenientFactor:    v.GetFloat64(KeyLenientFactor),
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyWorkers, c.Workers)
	}
	if c.DefaultTolerance <= 0 {
		return fmt.Errorf("%s must be positive, got %g", KeyDefaultTolerance, c.DefaultTolerance)
	}
	if c.ExtractCount <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyExtractCount, c.ExtractCount)
	}
	if _, err := imaging.ParseMethod(c.ExtractMethod); err != nil {
		return fmt.Errorf("%s: %w", KeyExtractMethod, err)
	}
	if c.ExtractThreshold <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyExtractThreshold, c.ExtractThreshold)
	}
	if c.ExtractMaxSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyExtractMaxSize, c.ExtractMaxSize)
	}
	if c.AreaThreshold < 0 || c.AreaThreshold > 100 {
		return fmt.Errorf("%s must be within 0-100, got %g", KeyAreaThreshold, c.AreaThreshold)
	}
	if c.StrictFactor <= 0 || c.LenientFactor <= 0 {
		return fmt.Errorf("policy factors must be positive, got %g and %g", c.StrictFactor, c.LenientFactor)
	}
	return nil
}

// WorkerCount returns the configured worker count, defaulting to NumCPU.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// StorePath returns the store location, defaulting to store.DefaultPath.
func (c Config) StorePath() string {
	if c.Store == "" {
		return store.DefaultPath
	}
	return c.Store
}

// ExtractOptions converts the extract.* settings.
func (c Config) ExtractOptions() imaging.ExtractOptions {
	method, err := imaging.ParseMethod(c.ExtractMethod)
	if err != nil {
		method = imaging.MethodGroup
	}
	return imaging.ExtractOptions{
		Method:    method,
		Count:     c.ExtractCount,
		Threshold: c.ExtractThreshold,
		MaxSize:   c.ExtractMaxSize,
	}
}

// Policy converts the policy.* settings.
func (c Config) Policy() matcher.Policy {
	return matcher.Policy{
		AreaThreshold: c.AreaThreshold,
		StrictFactor:  c.StrictFactor,
		LenientFactor: c.LenientFactor,
	}
}
