package listing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type row struct {
	Name string
	N    int
}

func TestFilterAndSearch(t *testing.T) {
	rows := []row{{"Email", 1}, {"Phone", 2}, {"email_alt", 3}}

	got := Search(rows, "EMAIL", func(r row) []string { return []string{r.Name} })
	want := []row{{"Email", 1}, {"email_alt", 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}

	if got := Search(rows, "  ", func(r row) []string { return []string{r.Name} }); len(got) != 3 {
		t.Errorf("Expected blank query to keep all rows, got %d", len(got))
	}

	odd := Filter(rows, func(r row) bool { return r.N%2 == 1 })
	if len(odd) != 2 {
		t.Errorf("Expected 2 odd rows, got %d", len(odd))
	}
}

func TestSortByIsStable(t *testing.T) {
	rows := []row{{"b", 1}, {"a", 2}, {"b", 0}}

	asc := SortBy(rows, func(r row) string { return r.Name }, false)
	want := []row{{"a", 2}, {"b", 1}, {"b", 0}}
	if diff := cmp.Diff(want, asc); diff != "" {
		t.Errorf("asc mismatch (-want +got):\n%s", diff)
	}

	desc := SortBy(rows, func(r row) int { return r.N }, true)
	if desc[0].N != 2 || desc[2].N != 0 {
		t.Errorf("Unexpected desc order %v", desc)
	}
	if rows[0].Name != "b" || rows[0].N != 1 {
		t.Error("SortBy must not modify its input")
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name      string
		page      int
		size      int
		wantFirst int
		wantLen   int
		wantPage  int
	}{
		{"default size", 1, 0, 0, 10, 1},
		{"last page", 3, 10, 20, 3, 3},
		{"clamped high", 9, 10, 20, 3, 3},
		{"clamped low", -1, 5, 0, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, tt.size)
			if len(p.Items) != tt.wantLen || p.Items[0] != tt.wantFirst || p.Page != tt.wantPage {
				t.Errorf("got page %d with %v", p.Page, p.Items)
			}
		})
	}

	p := Paginate(items, 2, 10)
	if !p.HasPrev() || !p.HasNext() || p.TotalPages != 3 || p.Total != 23 {
		t.Errorf("Unexpected page metadata %+v", p)
	}

	empty := Paginate([]int{}, 1, 10)
	if len(empty.Items) != 0 || empty.TotalPages != 1 || empty.HasNext() {
		t.Errorf("Unexpected empty page %+v", empty)
	}
}
