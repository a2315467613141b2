package config

import "github.com/spf13/viper"

const (
	DefaultImplDir           = "impl"
	DefaultImplSuffix        = "-impl"
	DefaultOutputDir         = "generated"
	DefaultConversionsModule = "webidl-conversions"
	DefaultExposure          = "Window"
	DefaultLogLevel          = "info"
)

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input", []string{})
	v.SetDefault("impl_dir", DefaultImplDir)
	v.SetDefault("impl_suffix", DefaultImplSuffix)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("conversions_module", DefaultConversionsModule)
	v.SetDefault("emit_conversions", false)
	v.SetDefault("suppress_errors", false)
	v.SetDefault("verify_syntax", true)
	// 0 = GOMAXPROCS
	v.SetDefault("workers", 0)
	v.SetDefault("default_exposure", DefaultExposure)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", DefaultLogLevel)
}
