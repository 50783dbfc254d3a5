package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/eleven-am/docshift/internal/migrator"
	"github.com/eleven-am/docshift/internal/models"
	"github.com/eleven-am/docshift/internal/store"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report what the migration still has to do",
	Long: `Report, without writing anything, how far the configured rename has progressed.

This command shows:
- Records still carrying the deprecated field
- Records carrying both the deprecated and the current field
- Indexes bound to the deprecated field
- The last run recorded in the ledger`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&migrateCollection, "collection", "", "Collection to inspect (default users)")
	statusCmd.Flags().StringVar(&migrateFrom, "from", "", "Deprecated field name (default mail)")
	statusCmd.Flags().StringVar(&migrateTo, "to", "", "Current field name (default email)")
}

// Status is the read-only view of a rename's progress.
type Status struct {
	Pending  int64
	Both     int64
	Migrated int64
	Indexes  []string
	LastRun  *models.MigrationRecord
}

// Done reports whether nothing is left to rename or drop.
func (s Status) Done() bool {
	return s.Pending == 0 && len(s.Indexes) == 0
}

// statusReader is the part of the store the status report reads.
type statusReader interface {
	ListIndexes(ctx context.Context, collection string) ([]store.Index, error)
	CountFields(ctx context.Context, collection string, filter store.FieldFilter) (int64, error)
	LastMigration(ctx context.Context, ledger, name string) (*models.MigrationRecord, error)
}

var _ statusReader = (*store.Store)(nil)

func collectStatus(ctx context.Context, st statusReader, opts migrator.Options) (Status, error) {
	var s Status
	var err error

	if s.Pending, err = st.CountFields(ctx, opts.Collection, store.FieldFilter{Present: []string{opts.From}}); err != nil {
		return s, fmt.Errorf("failed to count pending records: %w", err)
	}
	if s.Both, err = st.CountFields(ctx, opts.Collection, store.FieldFilter{Present: []string{opts.From, opts.To}}); err != nil {
		return s, fmt.Errorf("failed to count conflicting records: %w", err)
	}
	if s.Migrated, err = st.CountFields(ctx, opts.Collection, store.FieldFilter{Present: []string{opts.To}, Absent: []string{opts.From}}); err != nil {
		return s, fmt.Errorf("failed to count migrated records: %w", err)
	}

	indexes, err := st.ListIndexes(ctx, opts.Collection)
	if err != nil && !errors.Is(err, store.ErrIndexNotFound) {
		return s, fmt.Errorf("failed to list indexes: %w", err)
	}
	for _, idx := range indexes {
		if idx.Covers(opts.From) {
			s.Indexes = append(s.Indexes, idx.Name)
		}
	}

	if opts.Ledger != "" {
		last, err := st.LastMigration(ctx, opts.Ledger, opts.Name)
		if err != nil && !store.IsNotFound(err) {
			return s, fmt.Errorf("failed to read ledger: %w", err)
		}
		s.LastRun = last
	}

	return s, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	opts, err := migrationOptions(cmd)
	if err != nil {
		return fmt.Errorf("invalid migration options: %w", err)
	}

	ctx := commandContext(cmd)
	st, err := storeConfig(currentConfig()).Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer st.Close(context.Background())

	s, err := collectStatus(ctx, st, opts)
	if err != nil {
		return err
	}

	printStatus(cmd, opts, s)
	return nil
}

func printStatus(cmd *cobra.Command, opts migrator.Options, s Status) {
	cmd.Printf("Collection %s: %s -> %s\n", opts.Collection, opts.From, opts.To)
	cmd.Printf("  pending:  %d\n", s.Pending)
	cmd.Printf("  both:     %d\n", s.Both)
	cmd.Printf("  migrated: %d\n", s.Migrated)

	if len(s.Indexes) == 0 {
		cmd.Printf("  indexes on %s: none\n", opts.From)
	} else {
		cmd.Printf("  indexes on %s:\n", opts.From)
		for _, name := range s.Indexes {
			cmd.Printf("    %s\n", name)
		}
	}

	if s.LastRun != nil {
		cmd.Printf("Last run: %s at %s (modified %d)\n",
			s.LastRun.Status, s.LastRun.FinishedAt.Format("2006-01-02 15:04:05"), s.LastRun.Modified)
	}

	if s.Done() {
		cmd.Println("Nothing left to migrate.")
	}
}
