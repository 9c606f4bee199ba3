package views

// Page is a rendered document as stored in the page index and shown by the
// page templates.
type Page struct {
	Slug        string
	Title       string
	Date        string // YYYY-MM-DD
	Tags        []string
	Summary     string
	Description string
	HTML        string
	Link        string // site path including the path prefix
	Published   bool
}

// Excerpt is the text shown for a page in listings: its description when
// set, its summary otherwise.
func (p Page) Excerpt() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Summary
}
