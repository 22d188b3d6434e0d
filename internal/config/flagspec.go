package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/anime-shed/flag-inspector-go/internal/analyzer"
)

// FlagSpecEnvPrefix prefixes environment overrides, e.g. FLAGCHECK_BAND_TOLERANCE
const FlagSpecEnvPrefix = "FLAGCHECK"

// LoadFlagSpec overlays a YAML, JSON or TOML file and FLAGCHECK_* environment
// variables on the default flag spec. An empty path skips the file. Nested
// keys use an underscore in the environment (FLAGCHECK_EMBLEM_FILTER_MIN_BLUE).
func LoadFlagSpec(path string) (analyzer.FlagSpec, error) {
	v := viper.New()
	v.SetEnvPrefix(FlagSpecEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := registerDefaults(v, analyzer.DefaultFlagSpec()); err != nil {
		return analyzer.FlagSpec{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return analyzer.FlagSpec{}, fmt.Errorf("failed to read flag spec %s: %w", path, err)
		}
	}

	spec := analyzer.DefaultFlagSpec()
	if err := v.Unmarshal(&spec); err != nil {
		return analyzer.FlagSpec{}, fmt.Errorf("failed to decode flag spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return analyzer.FlagSpec{}, fmt.Errorf("invalid flag spec: %w", err)
	}
	return spec, nil
}

// registerDefaults makes every spec key known to viper so AutomaticEnv can
// resolve it during Unmarshal.
func registerDefaults(v *viper.Viper, spec analyzer.FlagSpec) error {
	raw, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to encode default flag spec: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("failed to encode default flag spec: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, value)
	}
}
