package projects

import (
	"errors"
	"strings"
	"testing"

	"github.com/papapumpkin/ddk/internal/lexorank"
)

func brokenStore() *ProjectsData {
	return &ProjectsData{
		IDCounter:       2,
		ActiveProjectID: 9,
		Workspaces: []*Workspace{{
			ID: 1, Name: "Main", Compiler: "23.0", Rank: lexorank.Default(),
			ProjectLinks: []*ProjectLink{
				{ID: 3, ProjectID: 2, Rank: lexorank.MustParse("1|i")},
				{ID: 4, ProjectID: 7, Rank: lexorank.MustParse("1|j")},
				{ID: 5, ProjectID: 2},
			},
		}},
		Projects: []*Project{
			{ID: 2, Name: "App"},
			{ID: 6, Name: "Orphan"},
		},
	}
}

func TestCheck_ReportsViolations(t *testing.T) {
	t.Parallel()

	err := brokenStore().Check()
	if !errors.Is(err, ErrInconsistent) {
		t.Fatalf("Check err = %v, want ErrInconsistent", err)
	}
	for _, want := range []string{
		"missing project 7",
		"unset rank",
		"project 6 is orphaned",
		"active project 9",
		"exceeds id counter",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Check error lacks %q:\n%v", want, err)
		}
	}
}

func TestRepair_RestoresInvariants(t *testing.T) {
	t.Parallel()

	d := brokenStore()
	notes := d.Repair()
	if len(notes) == 0 {
		t.Fatal("Repair returned no notes for a broken store")
	}
	mustCheck(t, d)

	links := d.Workspaces[0].ProjectLinks
	if len(links) != 2 || links[0].ID != 3 || links[1].ID != 5 {
		t.Fatalf("links = %v, want ids [3 5]", linkIDs(links))
	}
	if want := lexorank.MustParse("1|j"); links[1].Rank != want {
		t.Errorf("repaired rank = %s, want %s", links[1].Rank, want)
	}
	if d.Project(6) != nil {
		t.Error("orphan survived repair")
	}
	if d.ActiveProjectID != 0 {
		t.Errorf("ActiveProjectID = %d, want 0", d.ActiveProjectID)
	}
	if d.IDCounter < 6 {
		t.Errorf("IDCounter = %d, want at least 6", d.IDCounter)
	}

	// The rebuilt index must serve later mutations.
	if err := d.RemoveProjectLink(5); err != nil {
		t.Fatalf("RemoveProjectLink after repair: %v", err)
	}
	if again := d.Repair(); len(again) != 0 {
		t.Errorf("second Repair notes = %v, want none", again)
	}
}

func TestRepair_DuplicateIDs(t *testing.T) {
	t.Parallel()

	d := &ProjectsData{
		IDCounter: 5,
		Workspaces: []*Workspace{
			{ID: 1, Name: "A", Rank: lexorank.MustParse("1|i")},
			{ID: 1, Name: "B", Rank: lexorank.MustParse("1|i")},
		},
	}
	if err := d.Check(); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("Check err = %v, want ErrInconsistent", err)
	}
	d.Repair()
	if len(d.Workspaces) != 1 || d.Workspaces[0].Name != "A" {
		t.Errorf("workspaces after repair = %+v", d.Workspaces)
	}
	mustCheck(t, d)
}

func TestRepair_DuplicateRanks(t *testing.T) {
	t.Parallel()

	d := New()
	a := mustWorkspace(t, d, "A")
	b := mustWorkspace(t, d, "B")
	b.Rank = a.Rank
	if err := d.Check(); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("Check err = %v, want ErrInconsistent", err)
	}
	d.Repair()
	if !a.Rank.Less(b.Rank) {
		t.Errorf("ranks after repair: a=%s b=%s, want a < b", a.Rank, b.Rank)
	}
	mustCheck(t, d)
}

func TestRebalance(t *testing.T) {
	t.Parallel()

	d := New()
	ws := mustWorkspace(t, d, "Main")
	mustWorkspace(t, d, "Other")
	for _, name := range []string{"A", "B", "C"} {
		mustProject(t, d, "/src/"+name+".dproj", ws.ID)
	}
	links := ws.ProjectLinks
	links[0].Rank = lexorank.MustParse("1|h" + strings.Repeat("z", 60))
	before := linkIDs(SortedLinks(links))

	if n := d.Rebalance(48, false); n != 1 {
		t.Fatalf("Rebalance = %d, want 1 container", n)
	}
	if got := linkIDs(SortedLinks(ws.ProjectLinks)); !equalInts(got, before) {
		t.Errorf("order after rebalance = %v, want %v", got, before)
	}
	for _, l := range ws.ProjectLinks {
		if l.Rank.Rank().Len() > 2 || l.Rank.Bucket() != 2 {
			t.Errorf("link %d rank %s not respaced into bucket 2", l.ID, l.Rank)
		}
	}
	if n := d.Rebalance(48, false); n != 0 {
		t.Errorf("second Rebalance = %d, want 0", n)
	}
	if n := d.Rebalance(48, true); n != 2 {
		t.Errorf("forced Rebalance = %d, want 2 (workspace list and one link list)", n)
	}
	mustCheck(t, d)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
