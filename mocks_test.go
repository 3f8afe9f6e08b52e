package identity_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	identity "github.com/filevault/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// stubUsers implements the slice of identity.Users the auth path touches;
// the embedded interface panics on anything unexpected.
type stubUsers struct {
	identity.Users
	byEmail map[string]*identity.User
	byID    map[uuid.UUID]*identity.User
	findErr error
	created []*identity.User
}

func newStubUsers(users ...*identity.User) *stubUsers {
	s := &stubUsers{
		byEmail: map[string]*identity.User{},
		byID:    map[uuid.UUID]*identity.User{},
	}
	for _, u := range users {
		s.add(u)
	}
	return s
}

func (s *stubUsers) add(u *identity.User) {
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
}

func (s *stubUsers) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.FindByEmailTx(ctx, nil, email)
}

func (s *stubUsers) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*identity.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrRecordNotFound
}

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return s.FindByIDTx(ctx, nil, id)
}

func (s *stubUsers) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*identity.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrRecordNotFound
}

func (s *stubUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *identity.User) (*identity.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.add(user)
	s.created = append(s.created, user)
	return user, nil
}

func (s *stubUsers) Count(ctx context.Context) (int, error) {
	return len(s.byEmail), nil
}

// stubFiles reports a fixed file count.
type stubFiles struct {
	n int
}

func (s stubFiles) Count(ctx context.Context) (int, error) {
	return s.n, nil
}

// stubRepo wires stub repositories behind the RepositoryManager surface.
// RunInTx is a passthrough: the stubs ignore the transaction handle.
type stubRepo struct {
	users *stubUsers
	files stubFiles
}

func (m *stubRepo) Validate() error { return nil }
func (m *stubRepo) MustValidate()   {}

func (m *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *stubRepo) Users() identity.Users { return m.users }
func (m *stubRepo) Files() identity.Files { return m.files }

// fakeKeyedStore is an in-memory KeyedStore with real expiry semantics.
type fakeKeyedStore struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	healthy bool
	getErr  error
	setErr  error
	delErr  error
}

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

func newFakeKeyedStore() *fakeKeyedStore {
	return &fakeKeyedStore{
		entries: map[string]fakeEntry{},
		healthy: true,
	}
}

func (f *fakeKeyedStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	entry, ok := f.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(f.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (f *fakeKeyedStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = fakeEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (f *fakeKeyedStore) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeKeyedStore) IsHealthy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

func (f *fakeKeyedStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for k := range f.entries {
		out = append(out, k)
	}
	return out
}

// captureQueue records enqueued payloads.
type captureQueue struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (q *captureQueue) Enqueue(ctx context.Context, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, payload)
	return nil
}

func (q *captureQueue) payloads() []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]any(nil), q.jobs...)
}

type silentLogger struct{}

func (silentLogger) Debug(format string, args ...any) {}
func (silentLogger) Info(format string, args ...any)  {}
func (silentLogger) Error(format string, args ...any) {}
