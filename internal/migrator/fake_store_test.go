package migrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/eleven-am/docshift/internal/models"
	"github.com/eleven-am/docshift/internal/store"
)

type document map[string]interface{}

// fakeStore is an in-memory collection that follows the server semantics the
// runner relies on: $exists matches null values, and $rename overwrites the target.
type fakeStore struct {
	docs    []document
	indexes []store.Index
	records []models.MigrationRecord
	calls   []string
	closed  int

	listErr   error
	dropErr   error
	countErr  error
	renameErr error
	createErr error
	recordErr error
	closeErr  error
}

func newFakeStore(docs ...document) *fakeStore {
	return &fakeStore{
		docs:    docs,
		indexes: []store.Index{{Name: "_id_", Keys: []string{"_id"}, Unique: true}},
	}
}

func (f *fakeStore) withIndex(name string, keys ...string) *fakeStore {
	f.indexes = append(f.indexes, store.Index{Name: name, Keys: keys, Unique: true})
	return f
}

func (f *fakeStore) dialer() Dialer {
	return func(ctx context.Context) (Store, error) {
		f.calls = append(f.calls, "connect")
		return f, nil
	}
}

func (f *fakeStore) indexNames() []string {
	var names []string
	for _, idx := range f.indexes {
		names = append(names, idx.Name)
	}
	sort.Strings(names)
	return names
}

func (f *fakeStore) snapshot() []document {
	out := make([]document, 0, len(f.docs))
	for _, d := range f.docs {
		c := document{}
		for k, v := range d {
			c[k] = v
		}
		out = append(out, c)
	}
	return out
}

func matches(doc document, filter store.FieldFilter) bool {
	for _, field := range filter.Present {
		if _, ok := doc[field]; !ok {
			return false
		}
	}
	for _, field := range filter.Absent {
		if _, ok := doc[field]; ok {
			return false
		}
	}
	return true
}

func (f *fakeStore) ListIndexes(ctx context.Context, collection string) ([]store.Index, error) {
	f.calls = append(f.calls, "listIndexes")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]store.Index{}, f.indexes...), nil
}

func (f *fakeStore) DropIndex(ctx context.Context, collection, name string) error {
	f.calls = append(f.calls, "dropIndex:"+name)
	if f.dropErr != nil {
		return f.dropErr
	}
	for i, idx := range f.indexes {
		if idx.Name == name {
			f.indexes = append(f.indexes[:i], f.indexes[i+1:]...)
			return nil
		}
	}
	return &store.Error{Op: "drop index", Collection: collection, Index: name, Kind: store.ErrIndexNotFound}
}

func (f *fakeStore) CreateUniqueIndex(ctx context.Context, collection, field string) (string, error) {
	f.calls = append(f.calls, "createIndex:"+field)
	if f.createErr != nil {
		return "", f.createErr
	}
	name := fmt.Sprintf("%s_1", field)
	f.indexes = append(f.indexes, store.Index{Name: name, Keys: []string{field}, Unique: true})
	return name, nil
}

func (f *fakeStore) CountFields(ctx context.Context, collection string, filter store.FieldFilter) (int64, error) {
	f.calls = append(f.calls, "count")
	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, d := range f.docs {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) RenameField(ctx context.Context, collection string, filter store.FieldFilter, from, to string) (store.UpdateResult, error) {
	f.calls = append(f.calls, "rename")
	if f.renameErr != nil {
		return store.UpdateResult{}, f.renameErr
	}

	var res store.UpdateResult
	for _, d := range f.docs {
		if !matches(d, filter) {
			continue
		}
		res.Matched++
		value, ok := d[from]
		if !ok {
			continue
		}
		d[to] = value
		delete(d, from)
		res.Modified++
	}
	return res, nil
}

func (f *fakeStore) RecordMigration(ctx context.Context, ledger string, record models.MigrationRecord) error {
	f.calls = append(f.calls, "record")
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeStore) Close(ctx context.Context) error {
	f.calls = append(f.calls, "close")
	f.closed++
	return f.closeErr
}
