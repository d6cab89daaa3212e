package shared

import "testing"

func TestNewPaginationDefaultsAndClamp(t *testing.T) {
	cases := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{0, 0, 1, 50},
		{-3, -10, 1, 50},
		{2, 25, 2, 25},
		{1, 200, 1, 200},
		{1, 201, 1, 200},
		{1, 10000, 1, 200},
	}
	for _, tc := range cases {
		p := NewPagination(tc.page, tc.perPage)
		if p.Page != tc.wantPage || p.PerPage != tc.wantPerPage {
			t.Fatalf("NewPagination(%d, %d) = {%d %d}, want {%d %d}",
				tc.page, tc.perPage, p.Page, p.PerPage, tc.wantPage, tc.wantPerPage)
		}
	}
}

func TestPaginationOffset(t *testing.T) {
	if got := NewPagination(1, 50).Offset(); got != 0 {
		t.Fatalf("offset = %d, want 0", got)
	}
	if got := NewPagination(3, 20).Offset(); got != 40 {
		t.Fatalf("offset = %d, want 40", got)
	}
}
