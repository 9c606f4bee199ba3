package views

import (
	"net/url"
	"strings"
)

// FilterRelatedPages returns pages that share at least one tag with the current page.
func FilterRelatedPages(current Page, pages []Page) []Page {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []Page
	for _, p := range pages {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range p.Tags {
			tag := strings.ToLower(strings.TrimSpace(t))
			if _, ok := tagSet[tag]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// TagHref links to the index filtered by tag.
func TagHref(home, tag string) string {
	return home + "?tag=" + url.QueryEscape(tag)
}

// TagClass returns CSS classes for a tag link, with active variant.
func TagClass(active bool) string {
	if active {
		return "tag tag--active"
	}
	return "tag"
}

// JoinTags formats a tag slice as a comma-separated string.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
