package listutil

import (
	"net/url"
	"testing"
)

// TestParsePageParams_Defaults tests default page and per_page.
func TestParsePageParams_Defaults(t *testing.T) {
	p := ParsePageParams(url.Values{})
	if p.Page != 1 || p.PerPage != DefaultPerPage {
		t.Errorf("expected defaults, got %+v", p)
	}
}

// TestParsePageParams_Bounds tests clamping of out-of-range values.
func TestParsePageParams_Bounds(t *testing.T) {
	q := url.Values{"page": {"-3"}, "per_page": {"9999"}}
	p := ParsePageParams(q)
	if p.Page != 1 {
		t.Errorf("expected page clamped to 1, got %d", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Errorf("expected per_page reset to default, got %d", p.PerPage)
	}
}

// TestParseFilterParams tests that only recognised keys survive.
func TestParseFilterParams(t *testing.T) {
	q := url.Values{"q": {"ari"}, "role": {"owner"}, "bogus": {"x"}}
	fp := ParseFilterParams(q, []string{"role"})
	if fp.Search != "ari" {
		t.Errorf("expected search=ari, got %s", fp.Search)
	}
	if fp.Filters["role"] != "owner" {
		t.Errorf("expected role filter, got %v", fp.Filters)
	}
	if _, ok := fp.Filters["bogus"]; ok {
		t.Error("unrecognised filter key must be dropped")
	}
}

// TestNewPageInfo tests pagination arithmetic and clamping.
func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(1, 20, 45)
	if info.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", info.TotalPages)
	}

	info = NewPageInfo(99, 20, 45)
	if info.Page != 3 {
		t.Errorf("expected page clamped to 3, got %d", info.Page)
	}
	if info.Offset() != 40 {
		t.Errorf("expected offset 40, got %d", info.Offset())
	}

	info = NewPageInfo(1, 20, 0)
	if info.TotalPages != 1 || info.Page != 1 {
		t.Errorf("expected single empty page, got %+v", info)
	}
}
