package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dennwc/webidl2js/bindgen"
	"github.com/dennwc/webidl2js/config"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/generate"
)

var generateCmd = &cobra.Command{
	Use:   "generate [files or directories...]",
	Short: "Generate binding modules",
	Long: `Parse every IDL file, link the declarations and write one module per
construct to the output directory. Nothing is written if any construct fails.

Arguments replace the input list of the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		return regenerate(cmd.Context(), cfg)
	},
}

func init() {
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", config.DefaultOutputDir, "output directory")
	f.String("impl-dir", config.DefaultImplDir, "directory of the implementation modules")
	f.String("impl-suffix", config.DefaultImplSuffix, "suffix of implementation module names")
	f.String("conversions-module", config.DefaultConversionsModule, "module providing primitive conversions")
	f.Bool("emit-conversions", false, "write conversions.js next to the bindings")
	f.Bool("suppress-errors", false, "drop declarations that fail to link instead of failing")
	f.Bool("verify", true, "syntax check every generated module")
	f.IntP("workers", "j", 0, "constructs generated at once (0 = GOMAXPROCS)")
	f.String("default-exposure", config.DefaultExposure, "global of interfaces without [Exposed]")
}

// loadConfig decodes the prepared settings; args replace the configured input.
func loadConfig(args []string) (*config.Config, error) {
	if settings == nil {
		return nil, errors.AssertionFailedf("settings are not initialized")
	}
	cfg, err := config.FromViper(settings)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Input = args
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func options(cfg *config.Config) (generate.Options, error) {
	implDir, err := generate.ImplDir(cfg.OutputDir, cfg.ImplDir)
	if err != nil {
		return generate.Options{}, err
	}
	return generate.Options{
		Inputs: cfg.Input,
		Bindgen: bindgen.Options{
			ImplDir:           implDir,
			ImplSuffix:        cfg.ImplSuffix,
			ConversionsModule: cfg.ConversionsModule,
			DefaultExposure:   cfg.DefaultExposure,
		},
		SuppressErrors: cfg.SuppressErrors,
		VerifySyntax:   cfg.VerifySyntax,
		Workers:        cfg.Workers,
	}, nil
}

func regenerate(ctx context.Context, cfg *config.Config) error {
	opts, err := options(cfg)
	if err != nil {
		return err
	}
	res, err := generate.Run(ctx, opts)
	if err != nil {
		return err
	}
	return generate.Write(cfg.OutputDir, res, cfg.EmitConversions)
}
