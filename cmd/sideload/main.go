package main

import (
	"fmt"
	"os"

	"github.com/adamancini/sideload/internal/cmd"
	"github.com/adamancini/sideload/internal/exitcodes"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cmd.Execute(version, commit, date); err != nil {
		if !cmd.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(exitcodes.CodeForError(err))
	}
}
