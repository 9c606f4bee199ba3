package blog

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test_pages.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetPage(t *testing.T) {
	s := setupTestStore(t)

	page := Page{
		Slug:        "test-page",
		Title:       "Test Page",
		Date:        "2024-01-15",
		Tags:        []string{"Go", "testing"},
		Summary:     "A test page summary",
		Description: "Described",
		HTML:        "<h1>Test</h1>",
		Link:        "/blog/test-page/",
		Published:   true,
	}
	if err := s.SavePage(page); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}

	got, err := s.GetPage("test-page")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if got.Title != page.Title {
		t.Errorf("Title = %q, want %q", got.Title, page.Title)
	}
	if got.Date != page.Date {
		t.Errorf("Date = %q, want %q", got.Date, page.Date)
	}
	if got.Summary != page.Summary || got.Description != page.Description {
		t.Errorf("Summary/Description = %q/%q", got.Summary, got.Description)
	}
	if got.HTML != page.HTML {
		t.Errorf("HTML = %q, want %q", got.HTML, page.HTML)
	}
	if got.Link != "/blog/test-page/" {
		t.Errorf("Link = %q", got.Link)
	}
	if !got.Published {
		t.Error("Published should be true")
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "testing" {
		t.Errorf("Tags = %v, want [go testing]", got.Tags)
	}
}

func TestSavePageUpdate(t *testing.T) {
	s := setupTestStore(t)

	page := Page{Slug: "update-test", Title: "Original", Date: "2024-01-01", Tags: []string{"original"}, Published: true}
	if err := s.SavePage(page); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	page.Title = "Updated"
	page.Tags = []string{"updated", "modified"}
	if err := s.SavePage(page); err != nil {
		t.Fatalf("SavePage update failed: %v", err)
	}

	got, err := s.GetPage("update-test")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if got.Title != "Updated" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated")
	}
	if len(got.Tags) != 2 {
		t.Errorf("Tags count = %d, want 2", len(got.Tags))
	}
}

func TestGetPageNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPage("nonexistent")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetPageDraft(t *testing.T) {
	s := setupTestStore(t)

	if err := s.SavePage(Page{Slug: "draft", Title: "Draft", Date: "2024-01-01"}); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	if _, err := s.GetPage("draft"); err != sql.ErrNoRows {
		t.Errorf("GetPage should return ErrNoRows for drafts, got %v", err)
	}
	pages, err := s.ListPages("")
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("ListPages = %v, want drafts excluded", pages)
	}
}

func seedPages(t *testing.T, s *Store) {
	t.Helper()
	pages := []Page{
		{Slug: "page-1", Title: "Page 1", Date: "2024-01-01", Tags: []string{"go"}, Published: true},
		{Slug: "page-2", Title: "Page 2", Date: "2024-01-02", Tags: []string{"go", "web"}, Published: true},
		{Slug: "page-3", Title: "Page 3", Date: "2024-01-03", Tags: []string{"rust"}, Published: true},
		{Slug: "page-4", Title: "Page 4", Date: "2024-01-04", Tags: []string{"go", "secret"}, Published: false},
	}
	for _, p := range pages {
		if err := s.SavePage(p); err != nil {
			t.Fatalf("SavePage failed: %v", err)
		}
	}
}

func TestListPages(t *testing.T) {
	s := setupTestStore(t)
	seedPages(t, s)

	got, err := s.ListPages("")
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListPages count = %d, want 3 (excluding drafts)", len(got))
	}
	if got[0].Slug != "page-3" || got[2].Slug != "page-1" {
		t.Errorf("ListPages order = %s..%s, want newest first", got[0].Slug, got[2].Slug)
	}
}

func TestListPagesByTag(t *testing.T) {
	s := setupTestStore(t)
	seedPages(t, s)

	tests := []struct {
		tag  string
		want int
	}{
		{"go", 2},
		{"GO", 2},
		{" web ", 1},
		{"rust", 1},
		{"secret", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		got, err := s.ListPages(tt.tag)
		if err != nil {
			t.Fatalf("ListPages(%q) failed: %v", tt.tag, err)
		}
		if len(got) != tt.want {
			t.Errorf("ListPages(%q) count = %d, want %d", tt.tag, len(got), tt.want)
		}
	}
}

func TestListTags(t *testing.T) {
	s := setupTestStore(t)
	seedPages(t, s)

	tags, err := s.ListTags()
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	want := []string{"go", "rust", "web"}
	if len(tags) != len(want) {
		t.Fatalf("ListTags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestDeletePage(t *testing.T) {
	s := setupTestStore(t)
	seedPages(t, s)

	if err := s.DeletePage("page-1"); err != nil {
		t.Fatalf("DeletePage failed: %v", err)
	}
	if _, err := s.GetPage("page-1"); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows after delete, got %v", err)
	}
	if err := s.DeletePage("nonexistent"); err != nil {
		t.Errorf("DeletePage for missing slug should not error, got %v", err)
	}
}

func TestReset(t *testing.T) {
	s := setupTestStore(t)
	seedPages(t, s)

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	got, err := s.ListPages("")
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListPages after Reset = %d pages, want 0", len(got))
	}
	tags, err := s.ListTags()
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("ListTags after Reset = %v, want none", tags)
	}
	if err := s.SavePage(Page{Slug: "page-4", Title: "Draft", Date: "2024-01-04"}); err != nil {
		t.Errorf("SavePage after Reset failed: %v", err)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{",go,web,", []string{"go", "web"}},
		{"go", []string{"go"}},
		{",,", nil},
		{"", nil},
		{", go , web ,", []string{"go", "web"}},
	}
	for _, tt := range tests {
		got := ParseTags(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseTags(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestPageCache(t *testing.T) {
	s := setupTestStore(t)
	seedPages(t, s)
	pages, err := s.ListPages("")
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	tags, err := s.ListTags()
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	var c PageCache
	c.Fill(pages, tags)

	if got := c.ListPages("GO"); len(got) != 2 || got[0].Slug != "page-2" {
		t.Errorf("ListPages(GO) = %v, want page-2 and page-1", got)
	}
	if got := c.ListPages(""); len(got) != 3 {
		t.Errorf("ListPages = %d pages, want 3", len(got))
	}
	if got := c.ListTags(); len(got) != 3 {
		t.Errorf("ListTags = %v, want 3 tags", got)
	}
	if p, err := c.GetPage("page-3"); err != nil || p.Title != "Page 3" {
		t.Errorf("GetPage(page-3) = %v, %v", p, err)
	}
	if _, err := c.GetPage("page-4"); err != ErrNotFound {
		t.Errorf("drafts are not cached, got %v", err)
	}

	// The store is only read by a build, so later writes do not show.
	if err := s.DeletePage("page-3"); err != nil {
		t.Fatalf("DeletePage failed: %v", err)
	}
	if _, err := c.GetPage("page-3"); err != nil {
		t.Errorf("cache should still serve page-3 until the next Fill, got %v", err)
	}
	c.Fill(pages[:1], nil)
	if _, err := c.GetPage("page-3"); err != nil {
		t.Errorf("page-3 is the newest page and should remain, got %v", err)
	}
	if _, err := c.GetPage("page-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after Fill, got %v", err)
	}
}

func TestPageCacheEmpty(t *testing.T) {
	var c PageCache
	if pages := c.ListPages(""); len(pages) != 0 {
		t.Errorf("ListPages = %v, want empty", pages)
	}
	if _, err := c.GetPage("x"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	c.Fill(nil, nil)
	if pages := c.ListPages(""); pages == nil || len(pages) != 0 {
		t.Errorf("ListPages after empty Fill = %#v, want empty slice", pages)
	}
}
