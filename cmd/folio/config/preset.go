package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/config"
)

const presetLongDesc string = `Write a provider preset to config.toml.

A preset replaces the embedding and rewrite settings with a known-good
combination. Other sections of an existing config file are kept.

Presets:
  openai    text-embedding-3-small (1536 dimensions), gpt-4o-mini rewrites
  ollama    nomic-embed-text (768 dimensions), llama3.2 rewrites

Examples:
  folio config preset ollama`

const presetShortDesc string = "Write a provider preset"

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "preset <name>",
		Short:     presetShortDesc,
		Long:      presetLongDesc,
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.ValidPresetNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runPreset(cmd.OutOrStdout(), args[0], configDir)
		},
	}

	return cmd
}

func runPreset(out io.Writer, name, configDir string) error {
	preset, err := config.PresetConfig(name)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg.Embedding = preset.Embedding
	cfg.Rewrite = preset.Rewrite
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Applied preset %s to %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(name),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}
