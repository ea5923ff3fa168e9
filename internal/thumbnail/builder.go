package thumbnail

import (
	"strconv"
	"strings"
)

// ContentBuilder derives slide text from normalized rows.
type ContentBuilder struct {
	organizationName string
}

// NewContentBuilder returns a builder that stamps organizationName on every subtitle.
func NewContentBuilder(organizationName string) *ContentBuilder {
	return &ContentBuilder{organizationName: organizationName}
}

// OrganizationName returns the configured organization line.
func (b *ContentBuilder) OrganizationName() string {
	return b.organizationName
}

// Build derives the title and subtitle for one row.
func (b *ContentBuilder) Build(row Row) Content {
	return Content{
		Title:    b.buildTitle(row),
		Subtitle: b.buildSubtitle(row),
	}
}

func (b *ContentBuilder) buildTitle(row Row) string {
	return strings.TrimSpace(row.Title + partContent(row.Part))
}

func partContent(part Optional[int]) string {
	v, ok := part.Get()
	if !ok {
		return ""
	}
	return " (Part " + strconv.Itoa(v) + ")"
}

// buildSubtitle joins category/index, organization and date on three lines.
// Only outer blanks are trimmed so an empty first line is kept.
func (b *ContentBuilder) buildSubtitle(row Row) string {
	lines := []string{
		categoryContent(row.Category) + indexContent(row.Index),
		b.organizationName,
		row.Date.Format(DateLayout),
	}
	return strings.Trim(strings.Join(lines, "\n"), " \t")
}

func categoryContent(category Optional[string]) string {
	return category.OrElse("")
}

func indexContent(index Optional[int]) string {
	v, ok := index.Get()
	if !ok {
		return ""
	}
	return " #" + strconv.Itoa(v)
}
