// Package report renders the outcome of mask jobs.
//
// Available formats:
//   - SimpleWriter: colored plain text for the terminal
//   - JSONWriter and FullJSONWriter: job and summary as JSON for tooling
//   - MarkdownWriter: tables and a pie chart for tickets and wikis
//
// A report states how each chunk ended and lists every chunk that kept its
// original text. Document text, masked or not, never appears in a report.
//
// All writers satisfy Writer; MultiWriter fans one job out to several.
package report
