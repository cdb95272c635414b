package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adamancini/sideload/internal/config"
	"github.com/adamancini/sideload/internal/output"
)

type configOptions struct {
	schema bool
	path   bool
}

// configView renders the effective configuration. Text output is YAML with
// the source file as a leading comment.
type configView struct {
	source string
	cfg    *config.Config
}

func (v configView) RenderText(s output.Styles) string {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v.cfg); err != nil {
		return s.Error.Render(err.Error())
	}
	_ = enc.Close()
	return s.Dim.Render("# source: "+v.source) + "\n" + string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func newConfigCmd() *cobra.Command {
	opts := configOptions{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Prints the configuration after merging the config file over the defaults
and applying environment overrides.

Config files are searched in this order:
  --config flag
  SIDELOAD_CONFIG
  $XDG_CONFIG_HOME/sideload/config.{yaml,yml,toml,json}
  ~/.sideload/config.{yaml,yml,toml,json}`,
		Example: `  sideload config
  sideload config -o json
  sideload config --schema > config.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.schema, "schema", false, "Print the JSON Schema for config files")
	cmd.Flags().BoolVar(&opts.path, "path", false, "Print only the path of the config file in use")
	cmd.MarkFlagsMutuallyExclusive("schema", "path")

	return cmd
}

func runConfig(stdout io.Writer, opts configOptions) error {
	if opts.schema {
		_, err := stdout.Write(config.Schema())
		return err
	}

	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	if opts.path {
		if path == "" {
			path = "(defaults)"
		}
		_, err := fmt.Fprintln(stdout, path)
		return err
	}

	out, err := newOutputWriter(stdout)
	if err != nil {
		return err
	}
	if out.Format() != output.FormatText {
		return out.Write(cfg)
	}
	source := path
	if source == "" {
		source = "defaults"
	}
	return out.Write(configView{source: source, cfg: cfg})
}
