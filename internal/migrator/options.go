package migrator

import (
	"fmt"
	"strings"

	"github.com/eleven-am/docshift/internal/config"
)

// ConflictPolicy decides what happens to documents that carry both the
// deprecated and the current field.
type ConflictPolicy string

const (
	// PolicyOverwrite lets $rename replace the current value with the
	// deprecated one.
	PolicyOverwrite ConflictPolicy = "overwrite"
	// PolicySkip leaves such documents untouched and reports them.
	PolicySkip ConflictPolicy = "skip"
	// PolicyFail aborts the run before any rename when such documents exist.
	PolicyFail ConflictPolicy = "fail"
)

// ParsePolicy validates a policy name. An empty name means overwrite.
func ParsePolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyOverwrite, nil
	case PolicyOverwrite, PolicySkip, PolicyFail:
		return p, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q (want overwrite, skip or fail)", s)
	}
}

// Options describes one rename migration.
type Options struct {
	Name       string
	Collection string
	From       string
	To         string
	// Index forces the obsolete index name instead of introspecting.
	Index       string
	Policy      ConflictPolicy
	EnsureIndex bool
	// Ledger is the collection runs are recorded in; empty disables it.
	Ledger string
	DryRun bool
}

// DefaultOptions renames users.mail to users.email.
func DefaultOptions() Options {
	return Options{
		Name:       "rename_mail_to_email",
		Collection: config.DefaultCollection,
		From:       config.DefaultFromField,
		To:         config.DefaultToField,
		Policy:     PolicyOverwrite,
		Ledger:     config.DefaultLedger,
	}
}

// OptionsFromConfig builds options from the migration section of cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := ParsePolicy(cfg.Migration.Policy)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Name:        cfg.Migration.Name,
		Collection:  cfg.Migration.Collection,
		From:        cfg.Migration.From,
		To:          cfg.Migration.To,
		Index:       cfg.Migration.Index,
		Policy:      policy,
		EnsureIndex: cfg.Migration.EnsureIndex,
		Ledger:      cfg.Migration.Ledger,
	}, nil
}

// Validate checks the options describe a runnable migration.
func (o Options) Validate() error {
	if o.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if o.From == "" || o.To == "" {
		return fmt.Errorf("both from and to fields are required")
	}
	if o.From == o.To {
		return fmt.Errorf("from and to fields must differ (both %q)", o.From)
	}
	if strings.HasPrefix(o.From, "$") || strings.HasPrefix(o.To, "$") {
		return fmt.Errorf("field names must not start with '$'")
	}
	if o.From == "_id" || o.To == "_id" {
		return fmt.Errorf("_id cannot be renamed")
	}
	if _, err := ParsePolicy(string(o.Policy)); err != nil {
		return err
	}
	return nil
}
