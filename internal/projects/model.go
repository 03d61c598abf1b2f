// Package projects holds the ordered project/workspace model: projects, the
// workspaces and group project that link to them, and every mutation that
// keeps the store consistent.
package projects

import (
	"path/filepath"
	"strings"

	"github.com/papapumpkin/ddk/internal/lexorank"
)

// Project is a buildable target. Optional paths are empty when unknown.
type Project struct {
	ID        int    `toml:"id"`
	Name      string `toml:"name"`
	Directory string `toml:"directory"`
	Dproj     string `toml:"dproj,omitempty"`
	Dpr       string `toml:"dpr,omitempty"`
	Dpk       string `toml:"dpk,omitempty"`
	Exe       string `toml:"exe,omitempty"`
	Ini       string `toml:"ini,omitempty"`
}

// ProjectPaths is the subset of a Project that path discovery reads and rewrites.
type ProjectPaths struct {
	Name  string
	Dproj string
	Dpr   string
	Dpk   string
	Exe   string
	Ini   string
}

// Paths returns the discovery view of p.
func (p *Project) Paths() ProjectPaths {
	return ProjectPaths{Name: p.Name, Dproj: p.Dproj, Dpr: p.Dpr, Dpk: p.Dpk, Exe: p.Exe, Ini: p.Ini}
}

func (p *Project) setPaths(pp ProjectPaths) {
	p.Dproj, p.Dpr, p.Dpk, p.Exe, p.Ini = pp.Dproj, pp.Dpr, pp.Dpk, pp.Exe, pp.Ini
}

// ProjectLink places a Project inside a workspace or the group project.
type ProjectLink struct {
	ID        int               `toml:"id"`
	ProjectID int               `toml:"project_id"`
	Rank      lexorank.LexoRank `toml:"rank"`
}

// SortRank implements lexorank.Orderable.
func (l *ProjectLink) SortRank() lexorank.LexoRank { return l.Rank }

// SetSortRank implements lexorank.Orderable.
func (l *ProjectLink) SetSortRank(r lexorank.LexoRank) { l.Rank = r }

// Workspace is a user-ordered group of project links built with one compiler.
type Workspace struct {
	ID           int               `toml:"id"`
	Name         string            `toml:"name"`
	Compiler     string            `toml:"compiler"`
	Rank         lexorank.LexoRank `toml:"rank"`
	ProjectLinks []*ProjectLink    `toml:"project_links"`
}

// SortRank implements lexorank.Orderable.
func (w *Workspace) SortRank() lexorank.LexoRank { return w.Rank }

// SetSortRank implements lexorank.Orderable.
func (w *Workspace) SetSortRank(r lexorank.LexoRank) { w.Rank = r }

// GroupProject is the externally sourced project group. Its member list is
// reconciled from a group file rather than edited link by link.
type GroupProject struct {
	Name         string         `toml:"name"`
	Path         string         `toml:"path"`
	Compiler     string         `toml:"compiler"`
	ProjectLinks []*ProjectLink `toml:"project_links"`
}

// ProjectUpdate is a partial Project update; nil fields are left unchanged.
type ProjectUpdate struct {
	Name      *string `json:"name,omitempty"`
	Directory *string `json:"directory,omitempty"`
	Dproj     *string `json:"dproj,omitempty"`
	Dpr       *string `json:"dpr,omitempty"`
	Dpk       *string `json:"dpk,omitempty"`
	Exe       *string `json:"exe,omitempty"`
	Ini       *string `json:"ini,omitempty"`
}

// WorkspaceUpdate is a partial Workspace update; nil fields are left unchanged.
type WorkspaceUpdate struct {
	Name     *string `json:"name,omitempty"`
	Compiler *string `json:"compiler,omitempty"`
}

// fileKind classifies path by extension, case-insensitively.
type fileKind int

const (
	kindUnsupported fileKind = iota
	kindDproj
	kindDpr
	kindDpk
)

func classify(path string) fileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dproj":
		return kindDproj
	case ".dpr":
		return kindDpr
	case ".dpk":
		return kindDpk
	}
	return kindUnsupported
}

// projectFromFile builds a Project for a project or source file.
func projectFromFile(id int, path string, kind fileKind) *Project {
	base := filepath.Base(path)
	p := &Project{
		ID:        id,
		Name:      strings.TrimSuffix(base, filepath.Ext(base)),
		Directory: filepath.Dir(path),
	}
	switch kind {
	case kindDproj:
		p.Dproj = path
	case kindDpr:
		p.Dpr = path
	case kindDpk:
		p.Dpk = path
	}
	return p
}

func samePath(a, b string) bool {
	return a != "" && b != "" && filepath.Clean(a) == filepath.Clean(b)
}
