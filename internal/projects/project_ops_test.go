package projects

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewProject_ClassifiesByExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    Project
		wantErr error
	}{
		{path: "/src/App.dproj", want: Project{Name: "App", Directory: "/src", Dproj: "/src/App.dproj"}},
		{path: "/src/App.DPR", want: Project{Name: "App", Directory: "/src", Dpr: "/src/App.DPR"}},
		{path: "/pkg/Core.dpk", want: Project{Name: "Core", Directory: "/pkg", Dpk: "/pkg/Core.dpk"}},
		{path: "/src/Unit1.pas", wantErr: ErrUnsupported},
		{path: "/src/noext", wantErr: ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			d := New()
			ws := mustWorkspace(t, d, "Main")
			p, err := d.NewProject(tt.path, ws.ID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if len(d.Projects) != 0 || len(ws.ProjectLinks) != 0 {
					t.Error("failed NewProject left entities behind")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProject: %v", err)
			}
			tt.want.ID = p.ID
			if diff := cmp.Diff(tt.want, *p); diff != "" {
				t.Errorf("project (-want +got):\n%s", diff)
			}
			if len(ws.ProjectLinks) != 1 || ws.ProjectLinks[0].ProjectID != p.ID {
				t.Fatalf("links = %+v, want one link to project %d", ws.ProjectLinks, p.ID)
			}
			mustCheck(t, d)
		})
	}
}

func TestNewProject_UnknownWorkspace(t *testing.T) {
	t.Parallel()

	d := New()
	if _, err := d.NewProject("/src/App.dproj", 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNextID_SharedAcrossKinds(t *testing.T) {
	t.Parallel()

	d := New()
	ws := mustWorkspace(t, d, "Main")
	p := mustProject(t, d, "/src/App.dproj", ws.ID)
	link := ws.ProjectLinks[0]
	if ws.ID != 1 || p.ID != 2 || link.ID != 3 {
		t.Errorf("ids = (%d, %d, %d), want (1, 2, 3)", ws.ID, p.ID, link.ID)
	}
	if d.IDCounter != 3 {
		t.Errorf("IDCounter = %d, want 3", d.IDCounter)
	}
}

func TestRemoveProjectLink_PrunesOnlyOrphans(t *testing.T) {
	t.Parallel()

	d := New()
	main := mustWorkspace(t, d, "Main")
	other := mustWorkspace(t, d, "Other")
	p := mustProject(t, d, "/src/App.dproj", main.ID)
	first := main.ProjectLinks[0]
	second, err := d.AddProjectLink(p.ID, other.ID)
	if err != nil {
		t.Fatalf("AddProjectLink: %v", err)
	}
	if err := d.SelectProject(p.ID); err != nil {
		t.Fatalf("SelectProject: %v", err)
	}

	if err := d.RemoveProjectLink(first.ID); err != nil {
		t.Fatalf("RemoveProjectLink(first): %v", err)
	}
	if d.Project(p.ID) == nil {
		t.Fatal("project with a remaining link was deleted")
	}
	if d.ActiveProjectID != p.ID {
		t.Errorf("ActiveProjectID = %d, want %d", d.ActiveProjectID, p.ID)
	}
	mustCheck(t, d)

	if err := d.RemoveProjectLink(second.ID); err != nil {
		t.Fatalf("RemoveProjectLink(second): %v", err)
	}
	if d.Project(p.ID) != nil {
		t.Error("project without links survived")
	}
	if d.ActiveProjectID != 0 {
		t.Errorf("ActiveProjectID = %d, want 0", d.ActiveProjectID)
	}
	if d.ActiveProject() != nil {
		t.Error("ActiveProject() should be nil")
	}
	mustCheck(t, d)
}

func TestRemoveProjectLink_Unknown(t *testing.T) {
	t.Parallel()

	d := New()
	if err := d.RemoveProjectLink(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveProject_DropsEveryLink(t *testing.T) {
	t.Parallel()

	d := New()
	main := mustWorkspace(t, d, "Main")
	other := mustWorkspace(t, d, "Other")
	p := mustProject(t, d, "/src/App.dproj", main.ID)
	keep := mustProject(t, d, "/src/Keep.dproj", main.ID)
	if _, err := d.AddProjectLink(p.ID, other.ID); err != nil {
		t.Fatalf("AddProjectLink: %v", err)
	}

	if err := d.RemoveProject(p.ID); err != nil {
		t.Fatalf("RemoveProject: %v", err)
	}
	if d.Project(p.ID) != nil || d.CanFindAnyLinks(p.ID) {
		t.Error("project or its links survived")
	}
	if len(other.ProjectLinks) != 0 {
		t.Errorf("other workspace links = %d, want 0", len(other.ProjectLinks))
	}
	if d.Project(keep.ID) == nil {
		t.Error("unrelated project was deleted")
	}
	if err := d.RemoveProject(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
	mustCheck(t, d)
}

func TestMoveProjectLink_LandsBetweenNeighbours(t *testing.T) {
	t.Parallel()

	d := New()
	ws := mustWorkspace(t, d, "Main")
	for _, name := range []string{"A", "B", "C", "D"} {
		mustProject(t, d, "/src/"+name+".dproj", ws.ID)
	}
	l := append([]*ProjectLink(nil), ws.ProjectLinks...)

	// D between A and B.
	if err := d.MoveProjectLink(l[3].ID, &l[0].Rank, &l[1].Rank); err != nil {
		t.Fatalf("MoveProjectLink: %v", err)
	}
	want := []int{l[0].ID, l[3].ID, l[1].ID, l[2].ID}
	if diff := cmp.Diff(want, linkIDs(SortedLinks(ws.ProjectLinks))); diff != "" {
		t.Errorf("order after first move (-want +got):\n%s", diff)
	}

	// D again, now between B and C, starting from its new position.
	if err := d.MoveProjectLink(l[3].ID, &l[1].Rank, &l[2].Rank); err != nil {
		t.Fatalf("MoveProjectLink: %v", err)
	}
	want = []int{l[0].ID, l[1].ID, l[3].ID, l[2].ID}
	if diff := cmp.Diff(want, linkIDs(SortedLinks(ws.ProjectLinks))); diff != "" {
		t.Errorf("order after second move (-want +got):\n%s", diff)
	}

	// A to the end.
	if err := d.MoveProjectLink(l[0].ID, &l[2].Rank, nil); err != nil {
		t.Fatalf("MoveProjectLink: %v", err)
	}
	want = []int{l[1].ID, l[3].ID, l[2].ID, l[0].ID}
	if diff := cmp.Diff(want, linkIDs(SortedLinks(ws.ProjectLinks))); diff != "" {
		t.Errorf("order after third move (-want +got):\n%s", diff)
	}
	mustCheck(t, d)
}

func TestMoveProjectLink_MissingLink(t *testing.T) {
	t.Parallel()

	d := New()
	mustWorkspace(t, d, "Main")
	err := d.MoveProjectLink(12, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.ID != 12 {
		t.Errorf("err = %#v, want OpError with ID 12", err)
	}
}

func TestRefreshProject(t *testing.T) {
	t.Parallel()

	d := New()
	ws := mustWorkspace(t, d, "Main")
	p := mustProject(t, d, "/src/App.dproj", ws.ID)

	disc := &stubDiscoverer{}
	if err := d.RefreshProject(p.ID, disc); err != nil {
		t.Fatalf("RefreshProject: %v", err)
	}
	if p.Dpr != "/src/App.dpr" {
		t.Errorf("Dpr = %q, want /src/App.dpr", p.Dpr)
	}

	disc.fail = map[string]bool{"/src/App.dproj": true}
	if err := d.RefreshProject(p.ID, disc); !errors.Is(err, ErrNotFound) {
		t.Errorf("failing discovery err = %v, want ErrNotFound", err)
	}
	if err := d.RefreshProject(999, disc); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project err = %v, want ErrNotFound", err)
	}
}

func TestUpdateProject(t *testing.T) {
	t.Parallel()

	d := New()
	ws := mustWorkspace(t, d, "Main")
	p := mustProject(t, d, "/src/App.dproj", ws.ID)

	name, exe := "Renamed", "/bin/App.exe"
	if err := d.UpdateProject(p.ID, ProjectUpdate{Name: &name, Exe: &exe}); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	want := Project{ID: p.ID, Name: "Renamed", Directory: "/src", Dproj: "/src/App.dproj", Exe: "/bin/App.exe"}
	if diff := cmp.Diff(want, *p); diff != "" {
		t.Errorf("project (-want +got):\n%s", diff)
	}
	if err := d.UpdateProject(404, ProjectUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project err = %v, want ErrNotFound", err)
	}
}

func TestSelectProject(t *testing.T) {
	t.Parallel()

	d := New()
	ws := mustWorkspace(t, d, "Main")
	p := mustProject(t, d, "/src/App.dproj", ws.ID)

	if err := d.SelectProject(p.ID); err != nil {
		t.Fatalf("SelectProject: %v", err)
	}
	if got := d.ActiveProject(); got != p {
		t.Errorf("ActiveProject() = %v, want %v", got, p)
	}
	if err := d.SelectProject(p.ID + 100); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project err = %v, want ErrNotFound", err)
	}
	if d.ActiveProjectID != p.ID {
		t.Errorf("failed select changed ActiveProjectID to %d", d.ActiveProjectID)
	}
}
