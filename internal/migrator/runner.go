// Package migrator renames a deprecated field across a collection and retires
// the indexes bound to it.
//
// A run is idempotent: once every document carries the current field and the
// obsolete indexes are gone, running again drops nothing and modifies nothing.
// Index cleanup and the rename are independent; a failed cleanup is reported
// but never stops the rename.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eleven-am/docshift/internal/logger"
	"github.com/eleven-am/docshift/internal/models"
	"github.com/eleven-am/docshift/internal/store"
)

// Store is the subset of the record store a migration needs.
type Store interface {
	ListIndexes(ctx context.Context, collection string) ([]store.Index, error)
	DropIndex(ctx context.Context, collection, name string) error
	CreateUniqueIndex(ctx context.Context, collection, field string) (string, error)
	CountFields(ctx context.Context, collection string, filter store.FieldFilter) (int64, error)
	RenameField(ctx context.Context, collection string, filter store.FieldFilter, from, to string) (store.UpdateResult, error)
	RecordMigration(ctx context.Context, ledger string, record models.MigrationRecord) error
	Close(ctx context.Context) error
}

var _ Store = (*store.Store)(nil)

// Dialer acquires a store handle. The runner owns the handle it returns and
// closes it before Run returns.
type Dialer func(ctx context.Context) (Store, error)

// Dial adapts a store configuration into a Dialer.
func Dial(cfg *store.Config) Dialer {
	return func(ctx context.Context) (Store, error) {
		s, err := cfg.Connect(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

const closeTimeout = 10 * time.Second

// Runner executes one field-rename migration.
type Runner struct {
	opts Options
	log  logger.Logger
	now  func() time.Time
}

func NewRunner(opts Options) *Runner {
	// an unknown policy is left as-is for Validate to reject
	if policy, err := ParsePolicy(string(opts.Policy)); err == nil {
		opts.Policy = policy
	}

	return &Runner{
		opts: opts,
		log: logger.Migration().WithFields(map[string]interface{}{
			"collection": opts.Collection,
			"from":       opts.From,
			"to":         opts.To,
		}),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Options returns the options the runner was built with.
func (r *Runner) Options() Options {
	return r.opts
}

// Run connects through dial, retires the obsolete indexes, renames the field
// and closes the connection. It never panics on store errors; everything is
// reported through the returned Result.
func (r *Runner) Run(ctx context.Context, dial Dialer) *Result {
	res := &Result{StartedAt: r.now()}
	defer func() { res.FinishedAt = r.now() }()

	if err := r.opts.Validate(); err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("invalid migration options: %w", err)
		r.log.WithError(err).Error("Migration failed")
		return res
	}

	st, err := dial(ctx)
	if err != nil {
		res.Status = StatusFailed
		res.Err = &Error{Kind: ErrConnection, Op: "connect", Err: err}
		r.log.WithFields(map[string]interface{}{
			"operation": "connect",
			"error":     err,
		}).Error("Migration failed")
		return res
	}
	r.log.Info("Connected to store for migration")
	defer r.release(st, res)

	r.retireIndexes(ctx, st, res)

	if err := r.rename(ctx, st, res); err != nil {
		res.Status = StatusFailed
		res.Err = err
		r.log.WithFields(map[string]interface{}{
			"operation": "rename field",
			"error":     err,
		}).Error("Migration failed")
		r.record(ctx, st, res)
		return res
	}

	if r.opts.DryRun {
		res.Status = StatusDryRun
		r.log.Info("Dry run complete, no changes written.")
		return res
	}

	if r.opts.EnsureIndex {
		r.ensureIndex(ctx, st, res)
	}

	res.Status = StatusSucceeded
	r.log.Info("Migration complete.")
	r.record(ctx, st, res)
	return res
}

// release closes the handle with a fresh context so a cancelled run still
// disconnects.
func (r *Runner) release(st Store, res *Result) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := st.Close(ctx); err != nil {
		res.warn(fmt.Errorf("disconnect: %w", err))
		r.log.WithError(err).Warn("Error disconnecting from store")
		return
	}
	r.log.Info("Disconnected from store")
}

func (r *Runner) retireIndexes(ctx context.Context, st Store, res *Result) {
	names, err := r.resolveIndexes(ctx, st)
	if err != nil {
		e := &Error{Kind: ErrIndexOperation, Op: "list indexes", Collection: r.opts.Collection, Err: err}
		res.Indexes = append(res.Indexes, IndexResult{Name: r.unresolvedIndex(), Outcome: IndexError, Err: e})
		res.warn(e)
		r.log.WithFields(map[string]interface{}{
			"operation": "list indexes",
			"error":     err,
		}).Error("Error resolving indexes to drop")
		return
	}

	if len(names) == 0 {
		res.Indexes = append(res.Indexes, IndexResult{Name: r.unresolvedIndex(), Outcome: IndexNotFound})
		r.log.Infof("No index bound to field %q found, skipping drop.", r.opts.From)
		return
	}

	for _, name := range names {
		res.Indexes = append(res.Indexes, r.dropIndex(ctx, st, name, res))
	}
}

// unresolvedIndex names the index outcome when no concrete index was found.
func (r *Runner) unresolvedIndex() string {
	if r.opts.Index != "" {
		return r.opts.Index
	}
	return fmt.Sprintf("<on %s>", r.opts.From)
}

func (r *Runner) dropIndex(ctx context.Context, st Store, name string, res *Result) IndexResult {
	log := r.log.WithField("index", name)

	if r.opts.DryRun {
		log.Infof("Would drop index: %s", name)
		return IndexResult{Name: name, Outcome: IndexPlanned}
	}

	err := st.DropIndex(ctx, r.opts.Collection, name)
	switch {
	case err == nil:
		log.Infof("Dropped index: %s", name)
		return IndexResult{Name: name, Outcome: IndexDropped}
	case errors.Is(err, store.ErrIndexNotFound):
		log.Infof("Index %s not found, skipping drop.", name)
		return IndexResult{Name: name, Outcome: IndexNotFound}
	default:
		e := &Error{Kind: ErrIndexOperation, Op: "drop index", Collection: r.opts.Collection, Index: name, Err: err}
		res.warn(e)
		log.WithFields(map[string]interface{}{
			"operation": "drop index",
			"error":     err,
		}).Errorf("Error dropping index %s", name)
		return IndexResult{Name: name, Outcome: IndexError, Err: e}
	}
}

// resolveIndexes picks the indexes to drop. An explicit name is used as-is
// (the drop itself reports whether it exists); otherwise every index whose key
// includes the deprecated field is selected.
func (r *Runner) resolveIndexes(ctx context.Context, st Store) ([]string, error) {
	if r.opts.Index != "" && !r.opts.DryRun {
		return []string{r.opts.Index}, nil
	}

	indexes, err := st.ListIndexes(ctx, r.opts.Collection)
	if err != nil {
		if errors.Is(err, store.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, idx := range indexes {
		if idx.Name == "_id_" {
			continue
		}
		if r.opts.Index != "" {
			if idx.Name == r.opts.Index {
				names = append(names, idx.Name)
			}
			continue
		}
		if idx.Covers(r.opts.From) {
			names = append(names, idx.Name)
		}
	}

	return names, nil
}

func (r *Runner) rename(ctx context.Context, st Store, res *Result) error {
	coll, from, to := r.opts.Collection, r.opts.From, r.opts.To
	filter := store.FieldFilter{Present: []string{from}}

	if r.opts.Policy != PolicyOverwrite {
		conflicts, err := st.CountFields(ctx, coll, store.FieldFilter{Present: []string{from, to}})
		if err != nil {
			return &Error{Kind: ErrRenameOperation, Op: "count conflicts", Collection: coll, Err: err}
		}
		res.Conflicts = conflicts

		if conflicts > 0 {
			switch r.opts.Policy {
			case PolicyFail:
				return &Error{
					Kind:       ErrRenameOperation,
					Op:         "check conflicts",
					Collection: coll,
					Err:        fmt.Errorf("%w: %d document(s) have both %q and %q", ErrFieldConflict, conflicts, from, to),
				}
			case PolicySkip:
				r.log.Warnf("Skipping %d documents that carry both %q and %q.", conflicts, from, to)
			}
		}

		if r.opts.Policy == PolicySkip {
			filter.Absent = []string{to}
		}
	}

	if r.opts.DryRun {
		n, err := st.CountFields(ctx, coll, filter)
		if err != nil {
			return &Error{Kind: ErrRenameOperation, Op: "count matches", Collection: coll, Err: err}
		}
		res.Matched = n
		r.log.Infof("Would rename %q to %q in %d documents.", from, to, n)
		return nil
	}

	ur, err := st.RenameField(ctx, coll, filter, from, to)
	if err != nil {
		return &Error{Kind: ErrRenameOperation, Op: "rename field", Collection: coll, Err: err}
	}

	res.Matched = ur.Matched
	res.Modified = ur.Modified
	r.log.WithFields(map[string]interface{}{
		"matched":  ur.Matched,
		"modified": ur.Modified,
	}).Infof("Matched %d documents, modified %d documents.", ur.Matched, ur.Modified)

	return nil
}

func (r *Runner) ensureIndex(ctx context.Context, st Store, res *Result) {
	name, err := st.CreateUniqueIndex(ctx, r.opts.Collection, r.opts.To)
	if err != nil {
		e := &Error{Kind: ErrIndexOperation, Op: "create index", Collection: r.opts.Collection, Err: err}
		res.Replacement = &IndexResult{Name: r.opts.To, Outcome: IndexError, Err: e}
		res.warn(e)
		r.log.WithError(err).Errorf("Error creating unique index on %q", r.opts.To)
		return
	}

	res.Replacement = &IndexResult{Name: name, Outcome: IndexCreated}
	r.log.Infof("Created unique index: %s", name)
}

// record writes the ledger entry. Ledger failures never change the status.
func (r *Runner) record(ctx context.Context, st Store, res *Result) {
	if r.opts.Ledger == "" || r.opts.DryRun {
		return
	}

	res.FinishedAt = r.now()
	if err := st.RecordMigration(ctx, r.opts.Ledger, res.Record(r.opts)); err != nil {
		res.warn(fmt.Errorf("record migration: %w", err))
		r.log.WithError(err).Warn("Could not record migration in ledger")
	}
}
