// Package report renders a run's summaries as Markdown and DOCX.
package report

import (
	"fmt"
	"os"
	"strings"
)

// Section is one segment's entry in the report
type Section struct {
	Heading string
	Body    string
	// Skipped holds the reason a segment produced no summary
	Skipped string
}

// Document is everything a report shows
type Document struct {
	Title    string
	Source   string
	Summary  string
	Sections []Section
}

// Markdown renders doc
func Markdown(doc Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	if doc.Source != "" {
		fmt.Fprintf(&b, "**Source:** %s\n\n", doc.Source)
	}

	b.WriteString("## Summary\n\n")
	if doc.Summary == "" {
		b.WriteString("No summary was produced.\n\n")
	} else {
		b.WriteString(doc.Summary)
		b.WriteString("\n\n")
	}

	if len(doc.Sections) > 0 {
		b.WriteString("---\n\n## Segments\n\n")
	}
	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "### %s\n\n", s.Heading)
		switch {
		case s.Skipped != "":
			fmt.Fprintf(&b, "- skipped: %s\n\n", s.Skipped)
		case s.Body == "":
			b.WriteString("No summary returned.\n\n")
		default:
			b.WriteString(s.Body)
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

// WriteMarkdown writes the Markdown report to path
func WriteMarkdown(path string, doc Document) error {
	if err := os.WriteFile(path, []byte(Markdown(doc)), 0644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// WriteDocx writes the same content as a styled Word document
func WriteDocx(path string, doc Document) error {
	if err := markdownToDocx(doc.Title, Markdown(doc), path); err != nil {
		return fmt.Errorf("write docx report: %w", err)
	}
	return nil
}
