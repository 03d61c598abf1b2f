package arch_test

import (
	"go/ast"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// docExemptions lists exported names that go without a doc comment, by package.
var docExemptions = map[string]map[string]bool{
	// Each change variant's Type is documented once, on the Change interface.
	"changes": {"Type": true},
}

// undocumented returns the exported names in f that lack a doc comment
// starting with the name. Grouped consts and vars may share the group's doc
// or use a trailing comment.
func undocumented(f *ast.File, exempt map[string]bool) []string {
	var missing []string
	check := func(name *ast.Ident, docs ...*ast.CommentGroup) {
		if !name.IsExported() || exempt[name.Name] {
			return
		}
		for _, d := range docs {
			if d != nil && strings.HasPrefix(strings.TrimSpace(d.Text()), name.Name) {
				return
			}
		}
		missing = append(missing, name.Name)
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil || exportedReceiver(d.Recv.List[0].Type) {
				check(d.Name, d.Doc)
			}
		case *ast.GenDecl:
			grouped := len(d.Specs) > 1
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					check(s.Name, s.Doc, d.Doc)
				case *ast.ValueSpec:
					if grouped && (hasText(d.Doc) || hasText(s.Comment) || hasText(s.Doc)) {
						continue
					}
					for _, n := range s.Names {
						check(n, s.Doc, d.Doc)
					}
				}
			}
		}
	}
	return missing
}

func hasText(c *ast.CommentGroup) bool {
	return c != nil && strings.TrimSpace(c.Text()) != ""
}

func exportedReceiver(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.IsExported()
	case *ast.StarExpr:
		return exportedReceiver(e.X)
	case *ast.IndexExpr:
		return exportedReceiver(e.X)
	case *ast.IndexListExpr:
		return exportedReceiver(e.X)
	}
	return false
}

func TestExportedNamesDocumented(t *testing.T) {
	t.Parallel()
	for _, pkg := range packages(t) {
		for _, src := range parseDir(t, filepath.Join(internalDir(t), pkg), false) {
			for _, name := range undocumented(src.file, docExemptions[pkg]) {
				t.Errorf("%s/%s: exported %s has no doc comment", pkg, filepath.Base(src.path), name)
			}
		}
	}
}

func TestUndocumented_Detection(t *testing.T) {
	t.Parallel()
	f := parseSnippet(t, `package p

// Store holds things.
type Store struct{}

type Bare struct{}

// Load reads the store.
func (s *Store) Load() {}

// this comment does not name the method
func (s *Store) Save() {}

func (h hidden) Exported() {}

type hidden struct{}

// Limits for the store.
const (
	MaxItems = 10
	MaxDepth = 3
)

var (
	ErrA = 1 // trailing comment
	ErrB = 2
)
`)
	got := undocumented(f, nil)
	slices.Sort(got)
	want := []string{"Bare", "ErrB", "Save"}
	if !slices.Equal(got, want) {
		t.Errorf("undocumented = %v, want %v", got, want)
	}
}
