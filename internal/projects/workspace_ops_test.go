package projects

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/ddk/internal/lexorank"
)

func TestNewWorkspace_MainThenSecondary(t *testing.T) {
	t.Parallel()

	d := New()
	main := mustWorkspace(t, d, "Main")
	if main.Rank != lexorank.Default() {
		t.Errorf("Main rank = %s, want %s", main.Rank, lexorank.Default())
	}
	secondary := mustWorkspace(t, d, "Secondary")
	if want := lexorank.Default().Next(); secondary.Rank != want {
		t.Errorf("Secondary rank = %s, want %s", secondary.Rank, want)
	}

	var names []string
	for _, ws := range d.SortedWorkspaces() {
		names = append(names, ws.Name)
	}
	if diff := cmp.Diff([]string{"Main", "Secondary"}, names); diff != "" {
		t.Errorf("sorted workspaces (-want +got):\n%s", diff)
	}
	if main.ID == secondary.ID {
		t.Error("workspaces share an id")
	}
	mustCheck(t, d)
}

func TestNewWorkspace_UnknownCompiler(t *testing.T) {
	t.Parallel()

	d := New()
	_, err := d.NewWorkspace("Main", "99.0", testCompilers())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Op != "new workspace" {
		t.Errorf("err = %#v, want an OpError for new workspace", err)
	}
	if len(d.Workspaces) != 0 {
		t.Errorf("workspace was created despite the error")
	}
}

func TestMoveWorkspace(t *testing.T) {
	t.Parallel()

	d := New()
	a := mustWorkspace(t, d, "A")
	mustWorkspace(t, d, "B")
	c := mustWorkspace(t, d, "C")

	// C to the front.
	if err := d.MoveWorkspace(c.ID, nil, &a.Rank); err != nil {
		t.Fatalf("MoveWorkspace: %v", err)
	}
	var got []string
	for _, ws := range d.SortedWorkspaces() {
		got = append(got, ws.Name)
	}
	if diff := cmp.Diff([]string{"C", "A", "B"}, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	mustCheck(t, d)
}

func TestMoveWorkspace_Errors(t *testing.T) {
	t.Parallel()

	d := New()
	a := mustWorkspace(t, d, "A")
	b := mustWorkspace(t, d, "B")

	if err := d.MoveWorkspace(42, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing workspace err = %v, want ErrNotFound", err)
	}
	before := a.Rank
	if err := d.MoveWorkspace(a.ID, &b.Rank, &a.Rank); !errors.Is(err, lexorank.ErrInvalidRank) {
		t.Errorf("misordered neighbours err = %v, want ErrInvalidRank", err)
	}
	if a.Rank != before {
		t.Errorf("rank changed on failed move: %s -> %s", before, a.Rank)
	}
}

func TestRemoveWorkspace_CascadesOrphans(t *testing.T) {
	t.Parallel()

	d := New()
	main := mustWorkspace(t, d, "Main")
	other := mustWorkspace(t, d, "Other")
	only := mustProject(t, d, "/src/Only.dproj", main.ID)
	shared := mustProject(t, d, "/src/Shared.dproj", main.ID)
	if _, err := d.AddProjectLink(shared.ID, other.ID); err != nil {
		t.Fatalf("AddProjectLink: %v", err)
	}

	if err := d.RemoveWorkspace(main.ID); err != nil {
		t.Fatalf("RemoveWorkspace: %v", err)
	}
	if d.Project(only.ID) != nil {
		t.Error("project reachable only through the removed workspace survived")
	}
	if d.Project(shared.ID) == nil {
		t.Error("project still linked from another workspace was deleted")
	}
	if err := d.RemoveWorkspace(main.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
	mustCheck(t, d)
}

func TestUpdateWorkspace(t *testing.T) {
	t.Parallel()

	name, compiler, bogus := "Renamed", "22.0", "1.0"

	tests := []struct {
		name         string
		update       WorkspaceUpdate
		wantErr      error
		wantName     string
		wantCompiler string
	}{
		{"name only", WorkspaceUpdate{Name: &name}, nil, "Renamed", "23.0"},
		{"compiler only", WorkspaceUpdate{Compiler: &compiler}, nil, "Main", "22.0"},
		{"unknown compiler changes nothing", WorkspaceUpdate{Name: &name, Compiler: &bogus}, ErrNotFound, "Main", "23.0"},
		{"empty update", WorkspaceUpdate{}, nil, "Main", "23.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := New()
			ws := mustWorkspace(t, d, "Main")
			err := d.UpdateWorkspace(ws.ID, tt.update, testCompilers())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if ws.Name != tt.wantName || ws.Compiler != tt.wantCompiler {
				t.Errorf("workspace = (%q, %q), want (%q, %q)", ws.Name, ws.Compiler, tt.wantName, tt.wantCompiler)
			}
		})
	}
}
