package fastauth

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fakeClock is a settable time source shared between test and engine.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryUserStore struct {
	mu     sync.RWMutex
	nextID int
	byName map[string]*Principal
	byID   map[string]*Principal

	findErr error
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byName: make(map[string]*Principal),
		byID:   make(map[string]*Principal),
	}
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	if u, ok := s.byName[username]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *memoryUserStore) Create(_ context.Context, p *Principal) (*Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *p
	stored.ID = "user-" + strconv.Itoa(s.nextID)
	s.byName[stored.Username] = &stored
	s.byID[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (s *memoryUserStore) UpdateCredentialHash(_ context.Context, userID, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[userID]; ok {
		u.PasswordHash = newHash
	}
	return nil
}

func (s *memoryUserStore) setDisabled(username string, disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byName[username]; ok {
		u.Disabled = disabled
	}
}

func (s *memoryUserStore) hashOf(username string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byName[username]; ok {
		return u.PasswordHash
	}
	return ""
}

type memoryRoleStore struct {
	mu          sync.RWMutex
	nextID      int
	byName      map[string]*Role
	byID        map[string]*Role
	assignments map[string]map[string]struct{}
}

func newMemoryRoleStore() *memoryRoleStore {
	return &memoryRoleStore{
		byName:      make(map[string]*Role),
		byID:        make(map[string]*Role),
		assignments: make(map[string]map[string]struct{}),
	}
}

func (s *memoryRoleStore) FindByName(_ context.Context, name string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byName[name]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (s *memoryRoleStore) ListForPrincipal(_ context.Context, principalID string) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Role
	for roleID := range s.assignments[principalID] {
		if r, ok := s.byID[roleID]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memoryRoleStore) Create(_ context.Context, r *Role) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *r
	stored.ID = "role-" + strconv.Itoa(s.nextID)
	s.byName[stored.Name] = &stored
	s.byID[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (s *memoryRoleStore) Assign(_ context.Context, principalID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignments[principalID] == nil {
		s.assignments[principalID] = make(map[string]struct{})
	}
	s.assignments[principalID][roleID] = struct{}{}
	return nil
}

func (s *memoryRoleStore) Revoke(_ context.Context, principalID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments[principalID], roleID)
	return nil
}

// testFixture bundles an engine with its collaborators for assertions.
type testFixture struct {
	engine *Engine
	clock  *fakeClock
	users  *memoryUserStore
	roles  *memoryRoleStore
}

func testConfig(clock *fakeClock) Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Clock = clock.Now
	// Keep argon2 cheap in tests; still above the validation floor.
	cfg.Password = PasswordConfig{
		Memory:         8192,
		Time:           1,
		Parallelism:    1,
		SaltLength:     16,
		KeyLength:      32,
		UpgradeOnLogin: true,
	}
	return cfg
}

type fixtureOption func(*Config, *Builder)

func withRedisFeatures(t *testing.T) fixtureOption {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return func(cfg *Config, b *Builder) {
		cfg.RateLimit.Enabled = true
		cfg.Revocation.Enabled = true
		b.WithRedis(client)
	}
}

func newTestFixture(t *testing.T, opts ...fixtureOption) *testFixture {
	t.Helper()

	clock := newFakeClock()
	users := newMemoryUserStore()
	roles := newMemoryRoleStore()
	cfg := testConfig(clock)

	builder := New()
	for _, opt := range opts {
		opt(&cfg, builder)
	}
	builder.WithConfig(cfg).WithUserStore(users).WithRoleStore(roles)

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testFixture{
		engine: engine,
		clock:  clock,
		users:  users,
		roles:  roles,
	}
}

func (f *testFixture) seedUser(t *testing.T, username, secret string) *Principal {
	t.Helper()

	user, err := f.engine.Register(context.Background(), username, secret)
	if err != nil {
		t.Fatalf("Register(%s) error: %v", username, err)
	}
	return user
}

func (f *testFixture) seedRole(t *testing.T, name string) *Role {
	t.Helper()

	role, err := f.engine.CreateRole(context.Background(), name, "")
	if err != nil {
		t.Fatalf("CreateRole(%s) error: %v", name, err)
	}
	return role
}
