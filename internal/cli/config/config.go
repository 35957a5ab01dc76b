// Package config loads the CLI configuration with koanf.
//
// Precedence, lowest to highest: defaults, sqlweave.yaml, SQLWEAVE_*
// environment variables, command-line flags. The pipeline itself
// consumes no configuration; this layer only picks defaults for the
// CLI shell, so running without any config file works.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the CLI options after layering.
type Config struct {
	Target  string `koanf:"target"`
	Output  string `koanf:"output"`
	Watch   bool   `koanf:"watch"`
	Verbose bool   `koanf:"verbose"`
	NoColor bool   `koanf:"no_color"`
}

// configFileUsed records the file that was read, for verbose output.
var configFileUsed string

// GetConfigFileUsed returns the path of the config file that was
// loaded, or empty.
func GetConfigFileUsed() string {
	return configFileUsed
}

// findConfigFile finds the config file to use.
// Priority: explicit path > sqlweave.yaml > sqlweave.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"sqlweave.yaml", "sqlweave.yml", ".sqlweave.yaml", ".sqlweave.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load layers the configuration sources and returns the result.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Defaults.
	defaults := map[string]interface{}{
		"target":   "",
		"output":   "",
		"watch":    false,
		"verbose":  false,
		"no_color": false,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Config file, if present.
	configFileUsed = ""
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		configFileUsed = path
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}

	// Environment variables: SQLWEAVE_NO_COLOR -> no_color.
	if err := k.Load(env.Provider("SQLWEAVE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SQLWEAVE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Flags override everything. Flag names use '-' where config keys
	// use '_', so the mapping goes through a callback.
	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
