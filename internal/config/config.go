package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/audiolibrelab/sweepbench/internal/engine"
	"github.com/audiolibrelab/sweepbench/internal/sweep"
)

// RootConfig is the on-disk layout: named profiles plus a selector
type RootConfig struct {
	ActiveConfig string             `mapstructure:"active_config" yaml:"active_config"`
	Configs      map[string]*Config `mapstructure:"configs" yaml:"configs"`
}

// Config is one resolved configuration profile
type Config struct {
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
	Sweep  SweepConfig  `mapstructure:"sweep" yaml:"sweep"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

type EngineConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "sim", "auto"
}

type SweepConfig struct {
	StartFreq   float64       `mapstructure:"start_freq" yaml:"start_freq"`
	EndFreq     float64       `mapstructure:"end_freq" yaml:"end_freq"`
	Duration    time.Duration `mapstructure:"duration" yaml:"duration"`
	PostSilence time.Duration `mapstructure:"post_silence" yaml:"post_silence"`
	FadeEpsilon time.Duration `mapstructure:"fade_epsilon" yaml:"fade_epsilon"`
	Mode        string        `mapstructure:"mode" yaml:"mode"` // "engine-timed", "host-driven"
	Waveforms   []string      `mapstructure:"waveforms" yaml:"waveforms"`
	Oscillators []string      `mapstructure:"oscillators" yaml:"oscillators"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

// Default returns the built-in configuration: the original demo sweep,
// 20 Hz to 10 kHz over 5 seconds across all waveforms and both
// oscillator kinds.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{Backend: "auto"},
		Sweep: SweepConfig{
			StartFreq:   20,
			EndFreq:     10000,
			Duration:    5 * time.Second,
			PostSilence: 500 * time.Millisecond,
			FadeEpsilon: 100 * time.Millisecond,
			Mode:        string(sweep.ModeEngineTimed),
			Waveforms:   []string{"sine", "square", "sawtooth", "triangle"},
			Oscillators: []string{"wavetable", "regular"},
		},
		Server: ServerConfig{Port: "8080"},
	}
}

// LoadWithProfile loads the config file and resolves one profile
// against the default profile and the built-in defaults. A missing file
// yields the built-in defaults unless a profile was explicitly
// requested.
func LoadWithProfile(configFile, profile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified, use --config flag")
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if profile != "" {
			return nil, fmt.Errorf("profile '%s' requested but config file %s does not exist", profile, configFile)
		}
		cfg := Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root, err := readRootConfig(configFile)
	if err != nil {
		return nil, err
	}

	configName := profile
	if configName == "" {
		configName = root.ActiveConfig
	}
	if configName == "" {
		configName = "default"
	}

	selected, exists := root.Configs[configName]
	if !exists {
		if configName != "default" {
			return nil, fmt.Errorf("configuration profile '%s' not found", configName)
		}
		selected = &Config{}
	}

	// Resolve inheritance: built-in defaults, then the file's default
	// profile, then the selected profile
	resolved := Default()
	if configName != "default" {
		if defaultProfile, ok := root.Configs["default"]; ok {
			resolved = mergeConfigs(resolved, defaultProfile)
		}
	}
	resolved = mergeConfigs(resolved, selected)

	if err := resolved.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return resolved, nil
}

func readRootConfig(configFile string) (*RootConfig, error) {
	v := viper.New()
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var root RootConfig
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", configFile, err)
	}

	return &root, nil
}

// UpdateActiveConfig updates the active_config field in the config file
func UpdateActiveConfig(configFile, newActiveConfig string) error {
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	// Use a fresh viper instance to avoid interfering with the global one
	v := viper.New()
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	v.Set("active_config", newActiveConfig)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configFile, err)
	}

	return nil
}

// mergeConfigs implements profile fallback: a field set in the profile
// wins, anything unset inherits from base.
func mergeConfigs(base, profile *Config) *Config {
	result := &Config{}
	if base != nil {
		*result = *base
		// Slices would be shared with base otherwise
		result.Sweep.Waveforms = append([]string(nil), base.Sweep.Waveforms...)
		result.Sweep.Oscillators = append([]string(nil), base.Sweep.Oscillators...)
	}
	if profile == nil {
		return result
	}

	if profile.Engine.Backend != "" {
		result.Engine.Backend = profile.Engine.Backend
	}

	if profile.Sweep.StartFreq != 0 {
		result.Sweep.StartFreq = profile.Sweep.StartFreq
	}
	if profile.Sweep.EndFreq != 0 {
		result.Sweep.EndFreq = profile.Sweep.EndFreq
	}
	if profile.Sweep.Duration != 0 {
		result.Sweep.Duration = profile.Sweep.Duration
	}
	if profile.Sweep.PostSilence != 0 {
		result.Sweep.PostSilence = profile.Sweep.PostSilence
	}
	if profile.Sweep.FadeEpsilon != 0 {
		result.Sweep.FadeEpsilon = profile.Sweep.FadeEpsilon
	}
	if profile.Sweep.Mode != "" {
		result.Sweep.Mode = profile.Sweep.Mode
	}
	if len(profile.Sweep.Waveforms) > 0 {
		result.Sweep.Waveforms = append([]string(nil), profile.Sweep.Waveforms...)
	}
	if len(profile.Sweep.Oscillators) > 0 {
		result.Sweep.Oscillators = append([]string(nil), profile.Sweep.Oscillators...)
	}

	if profile.Server.Port != "" {
		result.Server.Port = profile.Server.Port
	}

	return result
}

// Validate checks the resolved configuration. All numeric and
// enumeration checks live in the sweep package; invalid values are
// rejected here, before anything touches an engine.
func (c *Config) Validate() error {
	_, err := c.SweepConfig()
	return err
}

// SweepConfig converts the resolved configuration into sweep options
func (c *Config) SweepConfig() (sweep.Config, error) {
	mode, err := sweep.ParseMode(c.Sweep.Mode)
	if err != nil {
		return sweep.Config{}, err
	}

	waveforms := make([]engine.Waveform, 0, len(c.Sweep.Waveforms))
	for _, s := range c.Sweep.Waveforms {
		w, err := engine.ParseWaveform(s)
		if err != nil {
			return sweep.Config{}, err
		}
		waveforms = append(waveforms, w)
	}

	oscillators := make([]engine.Oscillator, 0, len(c.Sweep.Oscillators))
	for _, s := range c.Sweep.Oscillators {
		o, err := engine.ParseOscillator(s)
		if err != nil {
			return sweep.Config{}, err
		}
		oscillators = append(oscillators, o)
	}

	cfg := sweep.Config{
		Waveforms:   waveforms,
		Oscillators: oscillators,
		StartFreq:   c.Sweep.StartFreq,
		EndFreq:     c.Sweep.EndFreq,
		Duration:    c.Sweep.Duration,
		Mode:        mode,
		PostSilence: c.Sweep.PostSilence,
		FadeEpsilon: c.Sweep.FadeEpsilon,
	}
	if err := cfg.Validate(); err != nil {
		return sweep.Config{}, err
	}
	return cfg, nil
}

// Profiles lists the profile names defined in a config file
func Profiles(configFile string) ([]string, error) {
	root, err := readRootConfig(configFile)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(root.Configs))
	for name := range root.Configs {
		names = append(names, name)
	}
	return names, nil
}
