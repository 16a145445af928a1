package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/wsedit/internal/paths"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "WSEDIT"

	cfgKeyProfile    = "profile"
	cfgKeyLogLevel   = "log_level"
	cfgKeyOutput     = "output"
	cfgKeyExtraRoots = "extra_roots"
	cfgKeyZedEnabled = "zed.enabled"
	cfgKeyZedDBDir   = "zed.db_dir"
	cfgKeyFoldCase   = "fold_case"
)

// Output formats.
const (
	outputText  = "text"
	outputJSON  = "json"
	outputPaths = "paths"
)

// ErrOutputUnknown is returned for an output format other than text or json.
var ErrOutputUnknown = errors.New("unknown output format")

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# wsedit configuration
# Every key can be overridden with a WSEDIT_ environment variable,
# e.g. WSEDIT_PROFILE or WSEDIT_ZED_DB_DIR.

# Profile used when --profile is not given (name, root directory or ::zed).
# profile:

# Log level: debug, info, warn, error.
log_level: warn

# Output format: text or json.
output: text

# Additional profile roots to discover.
extra_roots: []

zed:
  enabled: true
  # Directory holding the Zed channel databases.
  # db_dir:

# Case folding of paths when grouping: auto, on, off.
fold_case: auto
`

// configFile is the structure written to config.yaml by init --force.
type configFile struct {
	Profile    string    `yaml:"profile,omitempty"`
	LogLevel   string    `yaml:"log_level"`
	Output     string    `yaml:"output"`
	ExtraRoots []string  `yaml:"extra_roots"`
	Zed        zedConfig `yaml:"zed"`
	FoldCase   string    `yaml:"fold_case"`
}

type zedConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBDir   string `yaml:"db_dir,omitempty"`
}

// settings is the effective configuration of one invocation.
type settings struct {
	Profile  string
	LogLevel string
	Output   string
	Registry types.Config
}

// loadConfig reads config.yaml from configDir using Viper, with WSEDIT_
// environment overrides. It creates the config directory and a default
// config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyProfile, "")
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyOutput, outputText)
	v.SetDefault(cfgKeyExtraRoots, []string{})
	v.SetDefault(cfgKeyZedEnabled, true)
	v.SetDefault(cfgKeyZedDBDir, "")
	v.SetDefault(cfgKeyFoldCase, types.FoldAuto)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// readSettings extracts and validates the settings held by v.
func readSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Profile:  v.GetString(cfgKeyProfile),
		LogLevel: v.GetString(cfgKeyLogLevel),
		Output:   strings.ToLower(v.GetString(cfgKeyOutput)),
		Registry: types.Config{
			ZedEnabled: v.GetBool(cfgKeyZedEnabled),
			FoldCase:   strings.ToLower(v.GetString(cfgKeyFoldCase)),
		},
	}
	if s.Output != outputText && s.Output != outputJSON {
		return settings{}, fmt.Errorf("%w: %q", ErrOutputUnknown, s.Output)
	}
	if err := s.Registry.Validate(); err != nil {
		return settings{}, fmt.Errorf("%w: %q", err, s.Registry.FoldCase)
	}

	for _, root := range v.GetStringSlice(cfgKeyExtraRoots) {
		expanded, err := paths.ExpandHome(root)
		if err != nil {
			return settings{}, fmt.Errorf("extra_roots: %w", err)
		}
		s.Registry.ExtraRoots = append(s.Registry.ExtraRoots, expanded)
	}
	if dir := v.GetString(cfgKeyZedDBDir); dir != "" {
		expanded, err := paths.ExpandHome(dir)
		if err != nil {
			return settings{}, fmt.Errorf("zed.db_dir: %w", err)
		}
		s.Registry.ZedDBDir = expanded
	}
	return s, nil
}

// writeConfig writes the settings to path as config.yaml.
func writeConfig(path string, s settings) error {
	cfg := configFile{
		Profile:    s.Profile,
		LogLevel:   s.LogLevel,
		Output:     s.Output,
		ExtraRoots: s.Registry.ExtraRoots,
		Zed:        zedConfig{Enabled: s.Registry.ZedEnabled, DBDir: s.Registry.ZedDBDir},
		FoldCase:   s.Registry.FoldCase,
	}
	if cfg.ExtraRoots == nil {
		cfg.ExtraRoots = []string{}
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
