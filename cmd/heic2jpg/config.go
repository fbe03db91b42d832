// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/heic2jpg/pkg/types"
)

// qualityPrompt is shown in place of a quality that will be asked for.
const qualityPrompt = "prompt"

// resolvedConfig is the YAML view printed by `heic2jpg config`.
type resolvedConfig struct {
	InputDir   string `yaml:"input_dir"`
	OutputDir  string `yaml:"output_dir"`
	Quality    string `yaml:"quality"`
	ConfigFile string `yaml:"config_file,omitempty"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as YAML",
	Long: `Config prints the directories heic2jpg will use and the quality it will
apply, as resolved from flags, HEIC2JPG_* environment variables, and the
config file. A quality of "prompt" means it will be asked for at run time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(cmd.OutOrStdout(), viper.GetViper())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func writeConfig(w io.Writer, v *viper.Viper) error {
	def := types.DefaultRunConfig()
	rc := resolvedConfig{
		InputDir:   def.InputDir,
		OutputDir:  def.OutputDir,
		Quality:    qualityPrompt,
		ConfigFile: v.ConfigFileUsed(),
	}
	if v.IsSet("quality") {
		rc.Quality = v.GetString("quality")
	}

	out, err := yaml.Marshal(rc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(out)
	return err
}
