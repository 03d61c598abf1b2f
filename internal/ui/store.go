package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/papapumpkin/ddk/internal/projects"
)

// StoreOptions selects extra detail for RenderStore.
type StoreOptions struct {
	IDs   bool // show entity and link ids
	Ranks bool // show each entry's rank
}

// RenderStore draws the workspaces and the group project as trees, each in
// rank order. The active project is marked with a star.
func RenderStore(d *projects.ProjectsData, compilers projects.Compilers, opts StoreOptions) string {
	st := newStyles()
	var b strings.Builder

	root := tree.Root(st.title.Render("Workspaces")).Enumerator(tree.RoundedEnumerator)
	if len(d.Workspaces) == 0 {
		root.Child(st.dim.Render("(none)"))
	}
	for _, ws := range d.SortedWorkspaces() {
		label := st.accent.Render(ws.Name) + " " + compilerLabel(st, ws.Compiler, compilers)
		label += details(st, opts, ws.ID, ws.Rank.String())
		root.Child(linkTree(st, d, label, ws.ProjectLinks, opts))
	}
	b.WriteString(root.String())
	b.WriteByte('\n')

	if gp := d.GroupProject; gp != nil {
		b.WriteByte('\n')
		label := st.title.Render("Group project") + " " + st.accent.Render(gp.Name) + " " +
			compilerLabel(st, gp.Compiler, compilers) + st.dim.Render(" "+gp.Path)
		b.WriteString(linkTree(st, d, label, gp.ProjectLinks, opts).String())
		b.WriteByte('\n')
	}
	return b.String()
}

func linkTree(st styles, d *projects.ProjectsData, label string, links []*projects.ProjectLink, opts StoreOptions) *tree.Tree {
	t := tree.Root(label).Enumerator(tree.RoundedEnumerator)
	for _, l := range projects.SortedLinks(links) {
		p := d.Project(l.ProjectID)
		if p == nil {
			t.Child(st.bad.Render(fmt.Sprintf("missing project %d", l.ProjectID)))
			continue
		}
		name := p.Name
		if p.ID == d.ActiveProjectID {
			name = st.active.Render("★ " + p.Name)
		}
		t.Child(name + details(st, opts, l.ID, l.Rank.String()))
	}
	return t
}

func compilerLabel(st styles, key string, compilers projects.Compilers) string {
	if c, ok := compilers[key]; ok {
		return st.compiler.Render(fmt.Sprintf("[%s %s]", key, c.ProductName))
	}
	return st.bad.Render(fmt.Sprintf("[%s unknown]", key))
}

func details(st styles, opts StoreOptions, id int, rank string) string {
	var parts []string
	if opts.IDs {
		parts = append(parts, "#"+strconv.Itoa(id))
	}
	if opts.Ranks {
		parts = append(parts, rank)
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + st.dim.Render(strings.Join(parts, " "))
}

// RenderCompilers draws the registry as a table in key order.
func RenderCompilers(c projects.Compilers) string {
	st := newStyles()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.dim).
		Headers("KEY", "PRODUCT", "VERSION", "PACKAGE", "COMPILER", "INSTALLATION")
	for _, key := range c.Keys() {
		cfg := c[key]
		t.Row(
			key,
			cfg.ProductName,
			strconv.FormatFloat(cfg.ProductVersion, 'f', -1, 64),
			strconv.Itoa(cfg.PackageVersion),
			strconv.FormatFloat(cfg.CompilerVersion, 'f', -1, 64),
			cfg.InstallationPath,
		)
	}
	return t.String() + "\n"
}
