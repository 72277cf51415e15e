package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Holds the profile form option lists that operators tune per deployment;
// easier to manage in YAML than env vars.
type YAMLConfig struct {
	ProfileOptions ProfileOptionsConfig `yaml:"profile_options"`
	SkipReasons    []SkipReasonConfig   `yaml:"skip_reasons"`
}

// ProfileOptionsConfig defines the accepted values for structured profile fields.
// Empty lists disable validation for that field.
type ProfileOptionsConfig struct {
	Genders     []string `yaml:"genders"`
	Ethnicities []string `yaml:"ethnicities"`
	Locations   []string `yaml:"locations"`
}

// SkipReasonConfig defines a selectable reason for skipping a profile.
type SkipReasonConfig struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if len(cfg.ProfileOptions.Genders) == 0 {
		cfg.ProfileOptions.Genders = []string{"male", "female"}
	}

	return &cfg, nil
}

// AllowsEthnicity reports whether the value is an accepted ethnicity option.
func (c *YAMLConfig) AllowsEthnicity(value string) bool {
	return c == nil || allows(c.ProfileOptions.Ethnicities, value)
}

// AllowsLocation reports whether the value is an accepted location option.
func (c *YAMLConfig) AllowsLocation(value string) bool {
	return c == nil || allows(c.ProfileOptions.Locations, value)
}

// AllowsGender reports whether the value is an accepted gender option.
func (c *YAMLConfig) AllowsGender(value string) bool {
	if c == nil {
		return value == "male" || value == "female"
	}
	return allows(c.ProfileOptions.Genders, value)
}

// SkipReasonByCode finds a skip reason by its code.
func (c *YAMLConfig) SkipReasonByCode(code string) *SkipReasonConfig {
	if c == nil {
		return nil
	}
	for i := range c.SkipReasons {
		if c.SkipReasons[i].Code == code {
			return &c.SkipReasons[i]
		}
	}
	return nil
}

func allows(options []string, value string) bool {
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
