package cli

import (
	"github.com/eleven-am/docshift/pkg/docshift"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display docshift version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Print(docshift.FullVersionInfo())
	},
}
