package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eleven-am/docshift/internal/migrator"
	"github.com/spf13/cobra"
)

var (
	// Migration flags
	migrateCollection  string
	migrateFrom        string
	migrateTo          string
	migrateIndex       string
	migratePolicy      string
	migrateEnsureIndex bool
	migrateNoLedger    bool
	dryRun             bool
)

// errMigrationFailed is returned when the rename phase did not complete.
var errMigrationFailed = errors.New("migration failed")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rename a deprecated field and retire its indexes",
	Long: `Rename the deprecated field on every record that still carries it and drop
the indexes bound to that field.

Running the migration again once it has completed drops nothing and modifies
nothing. Index cleanup failures are reported but do not stop the rename.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateCollection, "collection", "", "Collection to migrate (default users)")
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "Deprecated field name (default mail)")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "Current field name (default email)")
	migrateCmd.Flags().StringVar(&migrateIndex, "index", "", "Drop this index instead of every index on the deprecated field")
	migrateCmd.Flags().StringVar(&migratePolicy, "policy", "", "Records carrying both fields: overwrite, skip or fail")
	migrateCmd.Flags().BoolVar(&migrateEnsureIndex, "ensure-index", false, "Create a unique index on the current field afterwards")
	migrateCmd.Flags().BoolVar(&migrateNoLedger, "no-ledger", false, "Do not record the run in the ledger collection")
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
}

// migrationOptions applies the command flags over the configured migration.
func migrationOptions(cmd *cobra.Command) (migrator.Options, error) {
	opts, err := migrator.OptionsFromConfig(currentConfig())
	if err != nil {
		return opts, err
	}

	if migrateCollection != "" {
		opts.Collection = migrateCollection
	}
	if migrateFrom != "" {
		opts.From = migrateFrom
	}
	if migrateTo != "" {
		opts.To = migrateTo
	}
	if migrateIndex != "" {
		opts.Index = migrateIndex
	}
	if migratePolicy != "" {
		policy, err := migrator.ParsePolicy(migratePolicy)
		if err != nil {
			return opts, err
		}
		opts.Policy = policy
	}
	if cmd.Flags().Changed("ensure-index") {
		opts.EnsureIndex = migrateEnsureIndex
	}
	if migrateNoLedger {
		opts.Ledger = ""
	}
	opts.DryRun = dryRun

	return opts, opts.Validate()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	opts, err := migrationOptions(cmd)
	if err != nil {
		return fmt.Errorf("invalid migration options: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if verbose {
		cmd.Printf("Migrating %s.%s: %s -> %s (policy %s)\n",
			currentConfig().Database.Name, opts.Collection, opts.From, opts.To, opts.Policy)
	}

	res := migrator.NewRunner(opts).Run(ctx, migrator.Dial(storeConfig(currentConfig())))
	printResult(cmd, res)

	if !res.OK() {
		return fmt.Errorf("%w: %v", errMigrationFailed, res.Err)
	}
	return nil
}

func printResult(cmd *cobra.Command, res *migrator.Result) {
	cmd.Printf("Status: %s\n", res.Status)

	for _, idx := range res.Indexes {
		cmd.Printf("  index %-24s %s\n", idx.Name, idx.Outcome)
	}
	if res.Replacement != nil {
		cmd.Printf("  index %-24s %s\n", res.Replacement.Name, res.Replacement.Outcome)
	}

	cmd.Printf("Matched: %d, Modified: %d", res.Matched, res.Modified)
	if res.Conflicts > 0 {
		cmd.Printf(", Conflicts: %d", res.Conflicts)
	}
	cmd.Println()

	for _, w := range res.Warnings {
		cmd.Printf("Warning: %v\n", w)
	}
	if res.Err != nil {
		cmd.Printf("Error: %v\n", res.Err)
	}
}
