package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/adamancini/sideload/internal/output"
)

// versionView is the output of 'sideload version'.
type versionView struct {
	Version   string `json:"version" yaml:"version" toml:"version"`
	Commit    string `json:"commit" yaml:"commit" toml:"commit"`
	Date      string `json:"date" yaml:"date" toml:"date"`
	GoVersion string `json:"goVersion" yaml:"goVersion" toml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform" toml:"platform"`
}

func (v versionView) RenderText(s output.Styles) string {
	return fmt.Sprintf("sideload version %s\n%s %s\n%s %s\n%s %s %s",
		v.Version,
		s.Dim.Render("commit:"), v.Commit,
		s.Dim.Render("built: "), v.Date,
		s.Dim.Render("go:    "), v.GoVersion, v.Platform)
}

func newVersionCmd(info buildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newOutputWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return out.Write(versionView{
				Version:   info.Version,
				Commit:    info.Commit,
				Date:      info.Date,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			})
		},
	}
}
