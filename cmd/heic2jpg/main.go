// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the heic2jpg CLI.
// Running the root command converts every .heic file in ./Photos into a
// JPEG in ./output at the chosen quality.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/heic2jpg/internal/batch"
	"github.com/pdiddy/heic2jpg/internal/transcode"
	"github.com/pdiddy/heic2jpg/internal/transcode/libheif"
	"github.com/pdiddy/heic2jpg/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "HEIC2JPG"

// rootCmd converts the Photos directory when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "heic2jpg",
	Short: "Convert HEIC photos to JPEG",
	Long: `heic2jpg converts every .heic file in the Photos directory into a JPEG
in the output directory (created if missing). Both directories are relative
to the working directory.

The JPEG quality (1-100) is read from --quality, the HEIC2JPG_QUALITY
environment variable, or "quality" in a config file; if none is set, it is
prompted for on standard input. Files that fail to convert are reported and
skipped.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./heic2jpg.yaml or ~/.config/heic2jpg/config.yaml)")
	rootCmd.Flags().Int("quality", 0, "JPEG quality 1-100 (prompted for when unset)")

	viper.BindPFlag("quality", rootCmd.Flags().Lookup("quality"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("heic2jpg")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "heic2jpg"))
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	quality, err := resolveQuality(viper.GetViper(), cmd)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Invalid quality value. Please enter a number between 1 and 100.")
		// Already reported above; cobra would print it again as "Error: ...".
		cmd.SilenceErrors = true
		return err
	}

	cfg := types.DefaultRunConfig()
	cfg.Quality = quality

	conv := transcode.New(libheif.New())
	_, err = batch.Run(cmd.Context(), cfg, conv, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

// resolveQuality returns the configured quality if one was supplied through
// a flag, the environment, or a config file, and prompts otherwise. Every
// source is validated the same way.
func resolveQuality(v *viper.Viper, cmd *cobra.Command) (int, error) {
	if v.IsSet("quality") {
		return batch.ParseQuality(v.GetString("quality"))
	}
	return batch.PromptQuality(cmd.InOrStdin(), cmd.OutOrStdout())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
