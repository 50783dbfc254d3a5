package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eleven-am/docshift/internal/config"
	"github.com/spf13/cobra"
)

var (
	initProject string
	initPath    string
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new docshift configuration file",
	Long: `Creates a docshift.yaml configuration file with default settings.
The template names the users collection and the mail -> email rename; edit it
to point at your deployment.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initProject, "project", "", "Project name")
	initCmd.Flags().StringVar(&initPath, "path", "docshift.yaml", "Where to write the configuration")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists. Use --force to overwrite", initPath)
	}

	project := initProject
	if project == "" {
		if dir, err := os.Getwd(); err == nil {
			project = filepath.Base(dir)
		} else {
			project = "my-project"
		}
	}

	cfg := config.Default()
	cfg.Project = project
	if databaseURL != "" {
		cfg.SetURL(databaseURL)
	}
	if dbName != "" {
		cfg.Database.Name = dbName
	} else {
		// left out so the URI path keeps choosing the database
		cfg.Database.Name = ""
	}

	if err := config.Save(cfg, initPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Created %s configuration file\n", initPath)
	cmd.Printf("\nNext steps:\n")
	cmd.Printf("1. Update database.url in %s (or set MONGODB_URI)\n", initPath)
	cmd.Printf("2. Run 'docshift status' to see what the migration would touch\n")
	cmd.Printf("3. Run 'docshift migrate' to rename the field\n")

	return nil
}
