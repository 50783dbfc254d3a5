package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/docshift/internal/cli"
	"github.com/eleven-am/docshift/pkg/docshift"
)

// Set by -ldflags at build time.
var (
	gitCommit string
	buildDate string
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func Execute() error {
	docshift.SetBuildInfo(gitCommit, buildDate, "")

	cmd := cli.NewRootCommand()
	return cmd.Execute()
}
