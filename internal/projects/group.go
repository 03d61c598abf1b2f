package projects

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/papapumpkin/ddk/internal/lexorank"
)

// SetGroupProject replaces the group project with the group file at path.
// Members are matched to existing projects by project file so a project that
// is also in a workspace is linked rather than duplicated; unmatched members
// become new projects with discovered paths. Projects only reachable through
// the previous group project are deleted. On error the store is unchanged.
func (d *ProjectsData) SetGroupProject(path, compiler string, compilers CompilerLookup, parser GroupParser, disc Discoverer) error {
	const op = "set group project"
	if !compilers.HasCompiler(compiler) {
		return opErr(op, 0, missing("compiler", compiler))
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return opErr(op, 0, missing("group project file", path))
		}
		return opErr(op, 0, err)
	}
	members, err := parser.ParseGroup(path)
	if err != nil {
		return opErr(op, 0, fmt.Errorf("parsing %s: %w", path, err))
	}

	counter := d.IDCounter
	base := filepath.Base(path)
	gp := &GroupProject{
		Name:     strings.TrimSuffix(base, filepath.Ext(base)),
		Path:     path,
		Compiler: compiler,
	}
	var created []*Project
	for _, member := range members {
		p := d.ProjectByDproj(member)
		if p == nil {
			p = findByDproj(created, member)
		}
		if p == nil {
			p = projectFromFile(d.NextID(), member, kindDproj)
			paths, err := disc.Discover(p.Paths())
			if err != nil {
				d.IDCounter = counter
				return opErr(op, 0, fmt.Errorf("member %s: %w", member, err))
			}
			p.setPaths(paths)
			created = append(created, p)
		}
		gp.ProjectLinks = append(gp.ProjectLinks, &ProjectLink{
			ID:        d.NextID(),
			ProjectID: p.ID,
			Rank:      lexorank.Append(gp.ProjectLinks),
		})
	}

	d.Projects = append(d.Projects, created...)
	old := d.GroupProject
	d.GroupProject = gp
	for _, l := range gp.ProjectLinks {
		d.index()[l.ID] = groupOwner
	}
	if old != nil {
		candidates := make([]int, 0, len(old.ProjectLinks))
		for _, l := range old.ProjectLinks {
			delete(d.index(), l.ID)
			candidates = append(candidates, l.ProjectID)
		}
		d.pruneOrphans(candidates...)
	}
	return nil
}

// SetGroupProjectCompiler changes the compiler of the current group project.
func (d *ProjectsData) SetGroupProjectCompiler(compiler string, compilers CompilerLookup) error {
	const op = "set group project compiler"
	if d.GroupProject == nil {
		return opErr(op, 0, fmt.Errorf("group project: %w", ErrNotFound))
	}
	if !compilers.HasCompiler(compiler) {
		return opErr(op, 0, missing("compiler", compiler))
	}
	d.GroupProject.Compiler = compiler
	return nil
}

// RemoveGroupProject clears the group project and deletes every project no
// workspace links to. It is a no-op without a group project.
func (d *ProjectsData) RemoveGroupProject() {
	gp := d.GroupProject
	if gp == nil {
		return
	}
	d.GroupProject = nil
	candidates := make([]int, 0, len(gp.ProjectLinks))
	for _, l := range gp.ProjectLinks {
		delete(d.index(), l.ID)
		candidates = append(candidates, l.ProjectID)
	}
	d.pruneOrphans(candidates...)
}

func findByDproj(list []*Project, path string) *Project {
	for _, p := range list {
		if samePath(p.Dproj, path) {
			return p
		}
	}
	return nil
}
