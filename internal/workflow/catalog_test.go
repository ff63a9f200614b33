package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

func TestCreateStatusDefaultsUnique(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.mustCreateStatus(t, CreateStatusInput{
		OrganizationID: "org-a", Name: "todo", DisplayName: "To Do", IsDefault: true,
	})
	second := env.mustCreateStatus(t, CreateStatusInput{
		OrganizationID: "org-a", Name: "doing", DisplayName: "Doing", IsDefault: true,
	})

	got, ok, err := env.catalog.GetDefaultStatus(ctx, "org-a")
	if err != nil {
		t.Fatalf("GetDefaultStatus: %v", err)
	}
	if !ok || got.ID != second.ID {
		t.Fatalf("default = %+v ok=%v, want %s", got, ok, second.ID)
	}
	reloaded, err := env.catalog.GetStatus(ctx, "org-a", first.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if reloaded.IsDefault {
		t.Fatalf("previous default was not cleared")
	}
}

func TestCreateStatusDuplicateName(t *testing.T) {
	env := newTestEnv(t)

	env.mustCreateStatus(t, CreateStatusInput{OrganizationID: "org-a", Name: "todo", DisplayName: "To Do"})
	_, err := env.catalog.CreateStatus(context.Background(), CreateStatusInput{
		OrganizationID: "org-a", Name: "todo", DisplayName: "Another",
	})
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}

	// Same name in a different organization is fine.
	env.mustCreateStatus(t, CreateStatusInput{OrganizationID: "org-b", Name: "todo", DisplayName: "To Do"})
}

func TestCreateStatusRejectsBadColor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.CreateStatus(context.Background(), CreateStatusInput{
		OrganizationID: "org-a", Name: "todo", DisplayName: "To Do", Color: "red",
	})
	if err == nil {
		t.Fatalf("expected validation error for color %q", "red")
	}
}

func TestGetStatusScopedToOrganization(t *testing.T) {
	env := newTestEnv(t)
	status := env.mustCreateStatus(t, CreateStatusInput{OrganizationID: "org-a", Name: "todo", DisplayName: "To Do"})

	_, err := env.catalog.GetStatus(context.Background(), "org-b", status.ID)
	if !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("cross-org get err = %v, want ErrUnknownStatus", err)
	}
}

func TestDeactivateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	status := env.mustCreateStatus(t, CreateStatusInput{OrganizationID: "org-a", Name: "todo", DisplayName: "To Do"})

	if err := env.catalog.Deactivate(ctx, "org-a", status.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	active, err := env.catalog.ListActive(ctx, "org-a")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("ListActive returned %d statuses after deactivation", len(active))
	}

	err = env.catalog.Deactivate(ctx, "org-a", "missing")
	if !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("missing status err = %v, want ErrUnknownStatus", err)
	}
}

func TestListActiveOrderedAndCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	done := env.mustCreateStatus(t, CreateStatusInput{OrganizationID: "org-a", Name: "done", DisplayName: "Done", OrderIndex: 2})
	todo := env.mustCreateStatus(t, CreateStatusInput{OrganizationID: "org-a", Name: "todo", DisplayName: "To Do", OrderIndex: 0})
	doing := env.mustCreateStatus(t, CreateStatusInput{OrganizationID: "org-a", Name: "doing", DisplayName: "Doing", OrderIndex: 1})

	active, err := env.catalog.ListActive(ctx, "org-a")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	wantOrder := []string{todo.ID, doing.ID, done.ID}
	if len(active) != len(wantOrder) {
		t.Fatalf("ListActive returned %d statuses, want %d", len(active), len(wantOrder))
	}
	for i, want := range wantOrder {
		if active[i].ID != want {
			t.Fatalf("active[%d] = %s, want %s", i, active[i].ID, want)
		}
	}

	// Second read is served from cache: mutate the store behind the cache's
	// back and expect the stale snapshot.
	delete(env.store.statuses, todo.ID)
	cached, err := env.catalog.ListActive(ctx, "org-a")
	if err != nil {
		t.Fatalf("ListActive (cached): %v", err)
	}
	if len(cached) != 3 {
		t.Fatalf("cached read returned %d statuses, want 3", len(cached))
	}

	// A catalog write invalidates the cache.
	if err := env.catalog.Deactivate(ctx, "org-a", doing.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	fresh, err := env.catalog.ListActive(ctx, "org-a")
	if err != nil {
		t.Fatalf("ListActive (fresh): %v", err)
	}
	if len(fresh) != 1 || fresh[0].ID != done.ID {
		t.Fatalf("fresh read = %+v, want only %s", fresh, done.ID)
	}
}
