package blog

import (
	"github.com/msahib/blog/content"
	"github.com/msahib/blog/plugins"
	"github.com/msahib/blog/views"
)

// Page is a rendered document as stored in the page index.
type Page = views.Page

// summaryLength is the rune budget of generated page summaries.
const summaryLength = 160

// pageFromDocument builds the index entry for a rendered document.
func pageFromDocument(site *plugins.Site, doc *content.Document) Page {
	text := doc.Text
	if text == "" {
		text = content.PlainText(doc.HTML)
	}
	return Page{
		Slug:        doc.Slug,
		Title:       doc.Front.Title,
		Date:        doc.Front.Date,
		Tags:        doc.Front.Tags,
		Summary:     content.Truncate(text, summaryLength),
		Description: doc.Front.Description,
		HTML:        doc.HTML,
		Link:        site.Path(plugins.DocPath(doc)),
		Published:   !doc.Front.Draft,
	}
}
