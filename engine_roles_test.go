package fastauth

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func seedRoles(t *testing.T, f *testFixture) {
	t.Helper()

	f.seedUser(t, "alice", "correct-horse")
	f.seedUser(t, "bob", "bobs-password")

	f.seedRole(t, "admin")
	f.seedRole(t, "editor")
	f.seedRole(t, "user")

	ctx := context.Background()
	for _, assignment := range []struct{ user, role string }{
		{"alice", "admin"},
		{"alice", "user"},
		{"bob", "user"},
	} {
		if err := f.engine.AssignRole(ctx, assignment.user, assignment.role); err != nil {
			t.Fatalf("AssignRole(%s, %s) error: %v", assignment.user, assignment.role, err)
		}
	}
}

func TestRolesFor(t *testing.T) {
	f := newTestFixture(t)
	seedRoles(t, f)

	roles, err := f.engine.RolesFor(context.Background(), "alice")
	if err != nil {
		t.Fatalf("RolesFor error: %v", err)
	}

	sort.Strings(roles)
	if len(roles) != 2 || roles[0] != "admin" || roles[1] != "user" {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestHasAnyAndAllRoles(t *testing.T) {
	f := newTestFixture(t)
	seedRoles(t, f)
	ctx := context.Background()

	ok, err := f.engine.HasAnyRole(ctx, "bob", "admin", "user")
	if err != nil {
		t.Fatalf("HasAnyRole error: %v", err)
	}
	if !ok {
		t.Fatal("expected bob to hold one of admin/user")
	}

	ok, err = f.engine.HasAllRoles(ctx, "bob", "admin", "user")
	if err != nil {
		t.Fatalf("HasAllRoles error: %v", err)
	}
	if ok {
		t.Fatal("expected bob to miss the admin role")
	}

	ok, err = f.engine.HasAllRoles(ctx, "alice", "admin", "user")
	if err != nil {
		t.Fatalf("HasAllRoles error: %v", err)
	}
	if !ok {
		t.Fatal("expected alice to hold both roles")
	}
}

func TestEmptyRequirementIsConfigError(t *testing.T) {
	f := newTestFixture(t)
	seedRoles(t, f)

	if _, err := f.engine.HasAnyRole(context.Background(), "alice"); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("HasAnyRole: expected ErrConfigInvalid, got %v", err)
	}
	if _, err := f.engine.HasAllRoles(context.Background(), "alice"); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("HasAllRoles: expected ErrConfigInvalid, got %v", err)
	}
}

func TestIsAdminUsesConfiguredRoles(t *testing.T) {
	f := newTestFixture(t)
	seedRoles(t, f)
	ctx := context.Background()

	ok, err := f.engine.IsAdmin(ctx, "alice")
	if err != nil {
		t.Fatalf("IsAdmin error: %v", err)
	}
	if !ok {
		t.Fatal("expected alice to be admin")
	}

	ok, err = f.engine.IsAdmin(ctx, "bob")
	if err != nil {
		t.Fatalf("IsAdmin error: %v", err)
	}
	if ok {
		t.Fatal("expected bob to not be admin")
	}
}

func TestRequireRoleDenied(t *testing.T) {
	f := newTestFixture(t)
	seedRoles(t, f)
	ctx := context.Background()

	if err := f.engine.RequireAnyRole(ctx, "alice", "admin"); err != nil {
		t.Fatalf("expected alice to pass, got %v", err)
	}
	if err := f.engine.RequireAnyRole(ctx, "bob", "admin", "editor"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := f.engine.RequireAllRoles(ctx, "alice", "admin", "editor"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestRoleManagement(t *testing.T) {
	f := newTestFixture(t)
	f.seedUser(t, "alice", "correct-horse")
	ctx := context.Background()

	created, err := f.engine.CreateRole(ctx, "auditor", "read-only reviewer")
	if err != nil {
		t.Fatalf("CreateRole error: %v", err)
	}
	if created.ID == "" || created.Name != "auditor" {
		t.Fatalf("unexpected role: %+v", created)
	}

	if _, err := f.engine.CreateRole(ctx, "auditor", ""); !errors.Is(err, ErrRoleExists) {
		t.Fatalf("expected ErrRoleExists, got %v", err)
	}

	fetched, err := f.engine.GetRole(ctx, "auditor")
	if err != nil {
		t.Fatalf("GetRole error: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("expected role %s, got %s", created.ID, fetched.ID)
	}

	if _, err := f.engine.GetRole(ctx, "missing"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}

	if err := f.engine.AssignRole(ctx, "alice", "auditor"); err != nil {
		t.Fatalf("AssignRole error: %v", err)
	}
	ok, err := f.engine.IsInRole(ctx, "alice", "auditor")
	if err != nil {
		t.Fatalf("IsInRole error: %v", err)
	}
	if !ok {
		t.Fatal("expected assignment to be visible")
	}

	if err := f.engine.RevokeRole(ctx, "alice", "auditor"); err != nil {
		t.Fatalf("RevokeRole error: %v", err)
	}
	ok, err = f.engine.IsInRole(ctx, "alice", "auditor")
	if err != nil {
		t.Fatalf("IsInRole error: %v", err)
	}
	if ok {
		t.Fatal("expected revocation to be visible")
	}

	// Administrative lookups keep their distinct not-found kinds.
	if err := f.engine.AssignRole(ctx, "nobody", "auditor"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := f.engine.AssignRole(ctx, "alice", "missing"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestRoleOpsWithoutRoleStore(t *testing.T) {
	clock := newFakeClock()
	users := newMemoryUserStore()

	engine, err := New().WithConfig(testConfig(clock)).WithUserStore(users).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.RolesFor(context.Background(), "alice"); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}
