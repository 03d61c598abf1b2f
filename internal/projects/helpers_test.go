package projects

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testCompilers() Compilers {
	return Compilers{
		"22.0": {Condition: "VER350", ProductName: "RAD Studio 11", ProductVersion: 11, PackageVersion: 280, CompilerVersion: 35, InstallationPath: `C:\Studio\22.0`},
		"23.0": {Condition: "VER360", ProductName: "RAD Studio 12", ProductVersion: 12, PackageVersion: 290, CompilerVersion: 36, InstallationPath: `C:\Studio\23.0`},
	}
}

// stubDiscoverer derives a .dpr next to the project file and fails for the
// project files listed in fail.
type stubDiscoverer struct {
	fail  map[string]bool
	calls int
}

func (s *stubDiscoverer) Discover(p ProjectPaths) (ProjectPaths, error) {
	s.calls++
	if s.fail[p.Dproj] {
		return p, fmt.Errorf("main source of %s: %w", p.Dproj, ErrNotFound)
	}
	p.Dpr = strings.TrimSuffix(p.Dproj, filepath.Ext(p.Dproj)) + ".dpr"
	p.Dpk = ""
	return p, nil
}

type groupFunc func(path string) ([]string, error)

func (f groupFunc) ParseGroup(path string) ([]string, error) { return f(path) }

func staticGroup(members ...string) groupFunc {
	return func(string) ([]string, error) { return members, nil }
}

// writeGroupFile creates an empty group file so the existence check passes.
func writeGroupFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("<Project/>"), 0o644); err != nil {
		t.Fatalf("writing group file: %v", err)
	}
	return path
}

func mustCheck(t *testing.T, d *ProjectsData) {
	t.Helper()
	if err := d.Check(); err != nil {
		t.Fatalf("store inconsistent: %v", err)
	}
}

func mustWorkspace(t *testing.T, d *ProjectsData, name string) *Workspace {
	t.Helper()
	ws, err := d.NewWorkspace(name, "23.0", testCompilers())
	if err != nil {
		t.Fatalf("NewWorkspace(%q): %v", name, err)
	}
	return ws
}

func mustProject(t *testing.T, d *ProjectsData, path string, workspaceID int) *Project {
	t.Helper()
	p, err := d.NewProject(path, workspaceID)
	if err != nil {
		t.Fatalf("NewProject(%q): %v", path, err)
	}
	return p
}

func linkIDs(links []*ProjectLink) []int {
	ids := make([]int, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids
}
