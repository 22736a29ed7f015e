package migration

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// memStore is an in-memory Store. Records are kept as JSON so tests can
// compare persisted bytes.
type memStore struct {
	mu        sync.Mutex
	tables    map[string]map[string][]byte
	accounts  []models.Account
	commitErr error
	commits   int
	saves     []string
}

var memKinds = []string{"element", "group", "config", "blueprint", "profile_instance", "application", "patch"}

func newMemStore() *memStore {
	s := &memStore{tables: make(map[string]map[string][]byte)}
	for _, k := range memKinds {
		s.tables[k] = make(map[string][]byte)
	}
	return s
}

func cloneTables(t map[string]map[string][]byte) map[string]map[string][]byte {
	out := make(map[string]map[string][]byte, len(t))
	for k, rows := range t {
		out[k] = maps.Clone(rows)
	}
	return out
}

func (s *memStore) put(kind, uuid string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[kind][uuid] = data
}

// raw returns the committed bytes of a record.
func (s *memStore) raw(kind, uuid string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[kind][uuid]
}

func (s *memStore) snapshot() map[string]map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTables(s.tables)
}

func decode[T any](rows map[string][]byte, uuid string) (*T, error) {
	data, ok := rows[uuid]
	if !ok {
		return nil, ErrNotFound
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeAll[T any](rows map[string][]byte) []T {
	var out []T
	for _, k := range slices.Sorted(maps.Keys(rows)) {
		var v T
		if err := json.Unmarshal(rows[k], &v); err != nil {
			panic(err)
		}
		out = append(out, v)
	}
	return out
}

func (s *memStore) Begin(context.Context) (UnitOfWork, error) {
	return &memTx{store: s, tables: s.snapshot(), savepoints: make(map[string]map[string]map[string][]byte)}, nil
}

func (s *memStore) Accounts(context.Context) ([]models.Account, error) {
	return s.accounts, nil
}

func (s *memStore) ApplicationsInProject(_ context.Context, project string) ([]models.Application, error) {
	var out []models.Application
	for _, a := range decodeAll[models.Application](s.snapshot()["application"]) {
		if a.ProjectName == project {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) ElementsByProfileInstance(_ context.Context, profileUUID, groupType string) ([]models.Element, error) {
	tables := s.snapshot()
	var out []models.Element
	for _, e := range decodeAll[models.Element](tables["element"]) {
		if e.ProfileInstanceUUID != profileUUID {
			continue
		}
		g, err := decode[models.Group](tables["group"], e.GroupUUID)
		if err != nil || g.Type != groupType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// memTx is a unit of work over a private copy of the tables.
type memTx struct {
	store      *memStore
	tables     map[string]map[string][]byte
	savepoints map[string]map[string]map[string][]byte
	done       bool
}

func (t *memTx) ElementByInstanceID(_ context.Context, instanceID string) (*models.Element, error) {
	for _, e := range decodeAll[models.Element](t.tables["element"]) {
		if e.InstanceID == instanceID {
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) Element(_ context.Context, uuid string) (*models.Element, error) {
	return decode[models.Element](t.tables["element"], uuid)
}

func (t *memTx) Group(_ context.Context, uuid string) (*models.Group, error) {
	return decode[models.Group](t.tables["group"], uuid)
}

func (t *memTx) Template(_ context.Context, uuid string) (*models.Template, error) {
	return decode[models.Template](t.tables["config"], uuid)
}

func (t *memTx) Blueprint(_ context.Context, uuid string) (*models.Blueprint, error) {
	return decode[models.Blueprint](t.tables["blueprint"], uuid)
}

func (t *memTx) ProfileInstance(_ context.Context, uuid string) (*models.ProfileInstance, error) {
	return decode[models.ProfileInstance](t.tables["profile_instance"], uuid)
}

func (t *memTx) Application(_ context.Context, uuid string) (*models.Application, error) {
	return decode[models.Application](t.tables["application"], uuid)
}

func (t *memTx) Patch(_ context.Context, uuid string) (*models.Patch, error) {
	return decode[models.Patch](t.tables["patch"], uuid)
}

func (t *memTx) PatchesByProfileInstance(_ context.Context, profileUUID string) ([]models.Patch, error) {
	var out []models.Patch
	for _, p := range decodeAll[models.Patch](t.tables["patch"]) {
		if p.ProfileInstanceUUID == profileUUID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memTx) save(kind, uuid string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	t.tables[kind][uuid] = data
	t.store.mu.Lock()
	t.store.saves = append(t.store.saves, kind+":"+uuid)
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) SaveElement(_ context.Context, e *models.Element) error {
	return t.save("element", e.UUID, e)
}

func (t *memTx) SaveGroup(_ context.Context, g *models.Group) error {
	return t.save("group", g.UUID, g)
}

func (t *memTx) SaveTemplate(_ context.Context, c *models.Template) error {
	return t.save("config", c.UUID, c)
}

func (t *memTx) SaveBlueprint(_ context.Context, b *models.Blueprint) error {
	return t.save("blueprint", b.UUID, b)
}

func (t *memTx) SavePatch(_ context.Context, p *models.Patch) error {
	return t.save("patch", p.UUID, p)
}

func (t *memTx) SaveProfileInstance(_ context.Context, p *models.ProfileInstance) error {
	return t.save("profile_instance", p.UUID, p)
}

func (t *memTx) SaveApplication(_ context.Context, a *models.Application) error {
	return t.save("application", a.UUID, a)
}

func (t *memTx) Savepoint(name string) error {
	t.savepoints[name] = cloneTables(t.tables)
	return nil
}

func (t *memTx) RollbackTo(name string) error {
	sp, ok := t.savepoints[name]
	if !ok {
		return errors.New("unknown savepoint " + name)
	}
	t.tables = cloneTables(sp)
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.tables = t.tables
	t.store.commits++
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	return nil
}
