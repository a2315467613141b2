// Package config loads the generator configuration with viper. Values come
// from defaults, an optional toml file and WEBIDL2JS_* environment variables,
// in increasing order of precedence; command line flags are bound on top.
package config

// Config is the configuration of one generation run.
type Config struct {
	// Input lists IDL files or directories.
	Input []string `mapstructure:"input"`
	// ImplDir is the directory of the implementation modules.
	ImplDir string `mapstructure:"impl_dir"`
	// ImplSuffix is appended to a construct name to form its
	// implementation module name.
	ImplSuffix string `mapstructure:"impl_suffix"`
	OutputDir  string `mapstructure:"output_dir"`
	// ConversionsModule is the module generated code loads primitive
	// conversions from.
	ConversionsModule string `mapstructure:"conversions_module"`
	// EmitConversions writes the built-in conversion table next to the
	// bindings.
	EmitConversions bool   `mapstructure:"emit_conversions"`
	SuppressErrors  bool   `mapstructure:"suppress_errors"`
	VerifySyntax    bool   `mapstructure:"verify_syntax"`
	Workers         int    `mapstructure:"workers"`
	DefaultExposure string `mapstructure:"default_exposure"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig selects the logger output.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}
