package migrator_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

// fakeStore is an in-memory Store with the same conditional-write semantics
// as the real table: inserts apply only for unseen IDs, finalizes only out
// of IN_PROGRESS, deletes only from the expected state.
type fakeStore struct {
	mu sync.Mutex

	rows     map[gocql.UUID]*migrator.VersionRecord
	executed []string

	keyspaceExists bool
	tableExists    bool
	keyspaceBound  bool

	// failOn makes Execute fail for statements containing the substring.
	failOn string

	// denyInserts makes every InsertVersion report applied=false, as if a
	// concurrent process always won the slot.
	denyInserts bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[gocql.UUID]*migrator.VersionRecord)}
}

// seed adds a history row directly, bypassing the conditional checks.
func (s *fakeStore) seed(rec *migrator.VersionRecord) {
	if rec.ID == (gocql.UUID{}) {
		rec.ID = gocql.TimeUUID()
	}

	s.rows[rec.ID] = rec
	s.keyspaceExists = true
	s.tableExists = true
}

func (s *fakeStore) Execute(_ context.Context, stmt string, _ ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failOn != "" && strings.Contains(stmt, s.failOn) {
		return errors.Errorf("statement rejected: %s", stmt)
	}

	s.executed = append(s.executed, stmt)
	return nil
}

func (s *fakeStore) InsertVersion(_ context.Context, rec *migrator.VersionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.denyInserts {
		return false, nil
	}
	if _, ok := s.rows[rec.ID]; ok {
		return false, nil
	}

	stored := *rec
	stored.AppliedAt = time.Now()
	s.rows[rec.ID] = &stored
	return true, nil
}

func (s *fakeStore) FinalizeVersion(_ context.Context, id gocql.UUID, to migrator.State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[id]
	if !ok || rec.State != migrator.StateInProgress {
		return false, nil
	}

	rec.State = to
	return true, nil
}

func (s *fakeStore) DeleteVersion(_ context.Context, id gocql.UUID, current migrator.State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[id]
	if !ok || rec.State != current {
		return false, nil
	}

	delete(s.rows, id)
	return true, nil
}

func (s *fakeStore) ListVersions(_ context.Context) ([]*migrator.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*migrator.VersionRecord, 0, len(s.rows))
	for _, rec := range s.rows {
		copied := *rec
		records = append(records, &copied)
	}

	return records, nil
}

func (s *fakeStore) KeyspaceExists(context.Context) (bool, error) { return s.keyspaceExists, nil }

func (s *fakeStore) EnsureKeyspace(context.Context) error {
	s.keyspaceExists = true
	return nil
}

func (s *fakeStore) TableExists(context.Context) (bool, error) {
	if !s.keyspaceExists {
		return false, errors.New("keyspace does not exist, stopping")
	}

	return s.tableExists, nil
}

func (s *fakeStore) EnsureTable(context.Context) error {
	s.tableExists = true
	return nil
}

func (s *fakeStore) DropKeyspace(context.Context) error {
	s.rows = make(map[gocql.UUID]*migrator.VersionRecord)
	s.keyspaceExists = false
	s.tableExists = false
	return nil
}

func (s *fakeStore) UseKeyspace(context.Context) error {
	s.keyspaceBound = true
	return nil
}

func (s *fakeStore) RefreshSchema(context.Context) error { return nil }

// byVersion returns the stored rows sorted by version.
func (s *fakeStore) byVersion() []*migrator.VersionRecord {
	records, _ := s.ListVersions(context.Background())
	sort.Slice(records, func(i, j int) bool { return records[i].Version < records[j].Version })

	return records
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
