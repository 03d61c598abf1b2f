package projects

import (
	"slices"

	"github.com/papapumpkin/ddk/internal/lexorank"
)

// NewWorkspace appends a workspace built with compiler. The first workspace
// gets the default rank; later ones rank after the current last.
func (d *ProjectsData) NewWorkspace(name, compiler string, compilers CompilerLookup) (*Workspace, error) {
	if !compilers.HasCompiler(compiler) {
		return nil, opErr("new workspace", 0, missing("compiler", compiler))
	}
	ws := &Workspace{
		ID:       d.NextID(),
		Name:     name,
		Compiler: compiler,
		Rank:     lexorank.Append(d.Workspaces),
	}
	d.Workspaces = append(d.Workspaces, ws)
	return ws, nil
}

// RemoveWorkspace deletes a workspace and every project that was only
// reachable through it.
func (d *ProjectsData) RemoveWorkspace(id int) error {
	i := slices.IndexFunc(d.Workspaces, func(ws *Workspace) bool { return ws.ID == id })
	if i < 0 {
		return opErr("remove workspace", id, missing("workspace", id))
	}
	ws := d.Workspaces[i]
	d.Workspaces = slices.Delete(d.Workspaces, i, i+1)

	candidates := make([]int, 0, len(ws.ProjectLinks))
	for _, l := range ws.ProjectLinks {
		delete(d.index(), l.ID)
		candidates = append(candidates, l.ProjectID)
	}
	d.pruneOrphans(candidates...)
	return nil
}

// MoveWorkspace ranks a workspace between prev and next. A nil neighbour
// marks the start or end of the list.
func (d *ProjectsData) MoveWorkspace(id int, prev, next *lexorank.LexoRank) error {
	const op = "move workspace"
	ws := d.Workspace(id)
	if ws == nil {
		return opErr(op, id, missing("workspace", id))
	}
	if err := lexorank.Move(ws, prev, next); err != nil {
		return opErr(op, id, err)
	}
	return nil
}

// UpdateWorkspace applies the non-nil fields of u. A new compiler key must be
// registered; nothing changes when it is not.
func (d *ProjectsData) UpdateWorkspace(id int, u WorkspaceUpdate, compilers CompilerLookup) error {
	const op = "update workspace"
	ws := d.Workspace(id)
	if ws == nil {
		return opErr(op, id, missing("workspace", id))
	}
	if u.Compiler != nil && !compilers.HasCompiler(*u.Compiler) {
		return opErr(op, id, missing("compiler", *u.Compiler))
	}
	if u.Name != nil {
		ws.Name = *u.Name
	}
	if u.Compiler != nil {
		ws.Compiler = *u.Compiler
	}
	return nil
}
