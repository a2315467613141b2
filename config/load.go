package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/dennwc/webidl2js/errors"
)

// EnvPrefix is the prefix of the environment variables read by New.
const EnvPrefix = "WEBIDL2JS"

// New returns a viper instance with defaults and environment binding set up.
// When path is not empty the toml file is read as well.
func New(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	return v, nil
}

// Load reads the configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes a prepared viper instance, e.g. one with flags bound.
func FromViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &c, nil
}
