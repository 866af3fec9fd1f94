package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Summary aggregates one report run.
type Summary struct {
	Acronyms   int      // acronym directories processed
	Missing    []string // acronyms without a directory
	Rows       int
	Skipped    int // files that could not be stat'ed
	XMLFailed  int // rows written without XML columns
	Bytes      int64
	PerAcronym map[string]int
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{PerAcronym: make(map[string]int)}
}

func (s *Summary) add(res *Result) {
	s.Rows++
	s.Bytes += res.Row.Size
	s.PerAcronym[res.Row.Acron]++
	if res.XMLFailed {
		s.XMLFailed++
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Render formats the summary for a terminal.
func (s *Summary) Render(output string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Report generated"))
	b.WriteString("\n")
	line := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	line("file", output)
	line("acronyms", fmt.Sprintf("%d", s.Acronyms))
	line("rows", humanize.Comma(int64(s.Rows)))
	line("total size", humanize.Bytes(uint64(s.Bytes)))

	if s.Skipped > 0 {
		line("skipped", warnStyle.Render(humanize.Comma(int64(s.Skipped))))
	}
	if s.XMLFailed > 0 {
		line("xml errors", warnStyle.Render(humanize.Comma(int64(s.XMLFailed))))
	}
	if len(s.Missing) > 0 {
		missing := append([]string(nil), s.Missing...)
		sort.Strings(missing)
		line("not found", warnStyle.Render(strings.Join(missing, ", ")))
	}

	return b.String()
}
