package changes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/papapumpkin/ddk/internal/lexorank"
	"github.com/papapumpkin/ddk/internal/projects"
)

func TestExecute_ProjectLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	f.mustRun(t,
		AddWorkspace{Name: "Main", Compiler: "23.0"},
		AddWorkspace{Name: "Tools", Compiler: "22.0"},
		NewProject{FilePath: "/src/App/App.dproj", WorkspaceID: 1},
	)
	data := f.store.Load()
	p := data.ProjectByDproj("/src/App/App.dproj")
	if p == nil {
		t.Fatal("project not created")
	}
	if p.Dpr != "/src/App/App.dpr" {
		t.Errorf("Dpr = %q, want discovered path", p.Dpr)
	}
	linkID := data.Workspace(1).ProjectLinks[0].ID

	f.mustRun(t,
		AddProject{ProjectID: p.ID, WorkspaceID: 2},
		SelectProject{ProjectID: p.ID},
		RemoveProject{ProjectLinkID: linkID},
	)
	data = f.store.Load()
	if data.Project(p.ID) == nil {
		t.Fatal("project removed while still linked from Tools")
	}
	if data.ActiveProjectID != p.ID {
		t.Errorf("ActiveProjectID = %d, want %d", data.ActiveProjectID, p.ID)
	}

	f.mustRun(t, RemoveWorkspace{WorkspaceID: 2})
	data = f.store.Load()
	if data.Project(p.ID) != nil {
		t.Error("orphaned project survived")
	}
	if data.ActiveProjectID != 0 {
		t.Errorf("ActiveProjectID = %d, want 0", data.ActiveProjectID)
	}
	if err := data.Check(); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestExecute_NewProjectWithoutDiscoverableSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	f.exec = NewExecutor(f.store, Options{Logger: zaptest.NewLogger(t)})

	missing := filepath.Join(t.TempDir(), "Ghost.dproj")
	f.mustRun(t,
		AddWorkspace{Name: "Main", Compiler: "23.0"},
		NewProject{FilePath: missing, WorkspaceID: 1},
	)
	p := f.store.Load().ProjectByDproj(missing)
	if p == nil {
		t.Fatal("project not kept when discovery found nothing")
	}
	if p.Dpr != "" || p.Exe != "" {
		t.Errorf("paths = %+v, want only the project file", p.Paths())
	}
}

func TestExecute_MoveWorkspace(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	f.mustRun(t,
		AddWorkspace{Name: "A", Compiler: "23.0"},
		AddWorkspace{Name: "B", Compiler: "23.0"},
		AddWorkspace{Name: "C", Compiler: "23.0"},
	)
	data := f.store.Load()
	a, b := data.Workspace(1).Rank, data.Workspace(2).Rank

	f.mustRun(t, MoveWorkspace{WorkspaceID: 3, Previous: &a, Next: &b})
	if got := workspaceNames(f.store.Load()); got[0] != "A" || got[1] != "C" || got[2] != "B" {
		t.Errorf("order = %v, want [A C B]", got)
	}

	f.mustRun(t, MoveWorkspace{WorkspaceID: 2, Previous: nil, Next: &a})
	if got := workspaceNames(f.store.Load()); got[0] != "B" || got[1] != "A" || got[2] != "C" {
		t.Errorf("order = %v, want [B A C]", got)
	}

	err := f.run(t, MoveWorkspace{WorkspaceID: 1, Previous: &b, Next: &b})
	if !errors.Is(err, lexorank.ErrInvalidRank) {
		t.Errorf("equal neighbours err = %v, want ErrInvalidRank", err)
	}
}

func TestExecute_Compilers(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	cfg := projects.CompilerConfiguration{
		Condition: "VER370", ProductName: "RAD Studio 13", ProductVersion: 13,
		PackageVersion: 300, CompilerVersion: 37, InstallationPath: `C:\Studio\24.0`,
	}

	f.mustRun(t, AddCompiler{Key: "24.0", Config: cfg}, AddWorkspace{Name: "Next", Compiler: "24.0"})
	if !f.store.LoadCompilers().HasCompiler("24.0") {
		t.Fatal("compiler not persisted")
	}

	if err := f.run(t, AddCompiler{Key: "24.0", Config: cfg}); !errors.Is(err, projects.ErrAlreadyExists) {
		t.Errorf("duplicate add err = %v, want ErrAlreadyExists", err)
	}
	if err := f.run(t, RemoveCompiler{Compiler: "24.0"}); !errors.Is(err, projects.ErrInUse) {
		t.Errorf("remove in use err = %v, want ErrInUse", err)
	}

	path := `D:\Studio\24.0`
	f.mustRun(t,
		UpdateCompiler{Key: "24.0", Data: projects.PartialCompilerConfiguration{InstallationPath: &path}},
	)
	if got := f.store.LoadCompilers()["24.0"].InstallationPath; got != path {
		t.Errorf("InstallationPath = %q, want %q", got, path)
	}

	f.mustRun(t, RemoveWorkspace{WorkspaceID: 1}, RemoveCompiler{Compiler: "24.0"})
	if f.store.LoadCompilers().HasCompiler("24.0") {
		t.Error("compiler not removed")
	}
}

func TestExecute_GroupProject(t *testing.T) {
	t.Parallel()
	groupFile := filepath.Join(t.TempDir(), "All.groupproj")
	if err := os.WriteFile(groupFile, []byte("<Project/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, Options{Groups: staticGroup{"/src/App/App.dproj", "/src/Lib/Lib.dproj"}})

	f.mustRun(t,
		AddWorkspace{Name: "Main", Compiler: "23.0"},
		NewProject{FilePath: "/src/App/App.dproj", WorkspaceID: 1},
		SetGroupProject{GroupprojPath: groupFile, Compiler: "22.0"},
	)
	data := f.store.Load()
	if data.GroupProject == nil || len(data.GroupProject.ProjectLinks) != 2 {
		t.Fatalf("group project = %+v, want two members", data.GroupProject)
	}
	if len(data.Projects) != 2 {
		t.Errorf("got %d projects, want the workspace project reused", len(data.Projects))
	}

	f.mustRun(t, SetGroupProject{GroupprojPath: groupFile})
	data = f.store.Load()
	if data.GroupProject.Compiler != "22.0" {
		t.Errorf("compiler = %q, want the previous 22.0 kept", data.GroupProject.Compiler)
	}

	f.mustRun(t, SetGroupProjectCompiler{Compiler: "23.0"})
	if got := f.store.Load().GroupProject.Compiler; got != "23.0" {
		t.Errorf("compiler = %q, want 23.0", got)
	}

	f.mustRun(t, RemoveGroupProject{})
	data = f.store.Load()
	if data.GroupProject != nil {
		t.Error("group project not removed")
	}
	if data.ProjectByDproj("/src/Lib/Lib.dproj") != nil {
		t.Error("group-only project survived removal")
	}
	if data.ProjectByDproj("/src/App/App.dproj") == nil {
		t.Error("workspace project removed with the group project")
	}
}

func TestExecute_UpdateAndRefresh(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	f.mustRun(t,
		AddWorkspace{Name: "Main", Compiler: "23.0"},
		NewProject{FilePath: "/src/App/App.dproj", WorkspaceID: 1},
	)

	name, exe := "Application", "/out/App.exe"
	wsName := "Primary"
	f.mustRun(t,
		UpdateProject{ProjectID: 2, Data: projects.ProjectUpdate{Name: &name, Exe: &exe}},
		UpdateWorkspace{WorkspaceID: 1, Data: projects.WorkspaceUpdate{Name: &wsName}},
	)
	data := f.store.Load()
	if p := data.Project(2); p.Name != name || p.Exe != exe {
		t.Errorf("project = %+v", p)
	}
	if data.Workspace(1).Name != wsName {
		t.Errorf("workspace name = %q", data.Workspace(1).Name)
	}

	f.mustRun(t, RefreshProject{ProjectID: 2})
	if p := f.store.Load().Project(2); p.Dpr != "/src/App/App.dpr" {
		t.Errorf("Dpr after refresh = %q", p.Dpr)
	}

	if err := f.run(t, RefreshProject{ProjectID: 42}); !errors.Is(err, projects.ErrNotFound) {
		t.Errorf("refresh unknown err = %v, want ErrNotFound", err)
	}
}
