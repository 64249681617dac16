// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/monu322/ai-job-applier-app/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// writeList appends up to limit items under a heading, with an overflow note.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
	sb.WriteString("\n")
}

// PrintStep outputs a single progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStep(step, message string) {
	fmt.Fprintf(p.out, "→ [%s] %s\n", step, message)
}

// PrintCandidateProfile outputs a human-readable summary of an extracted profile.
func (p *Printer) PrintCandidateProfile(profile *types.CandidateProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:      %s\n", profile.Name)
	fmt.Fprintf(&sb, "Title:     %s\n", profile.Title)
	fmt.Fprintf(&sb, "Level:     %s\n", orDash(profile.ExperienceLevel))
	fmt.Fprintf(&sb, "Location:  %s\n", orDash(profile.Location))
	fmt.Fprintf(&sb, "Email:     %s\n", orDash(profile.Email))
	if profile.SalaryMin != nil || profile.SalaryMax != nil {
		fmt.Fprintf(&sb, "Salary:    %s\n", salaryRange(profile.SalaryMin, profile.SalaryMax))
	}
	sb.WriteString("\n")

	writeList(&sb, "Skills", profile.Skills, maxItemsToShow)
	writeList(&sb, "Suggested roles", profile.Roles, 3)

	p.printBox("EXTRACTED CANDIDATE PROFILE", strings.TrimSuffix(sb.String(), "\n\n"))
	p.printWorkHistory(profile.WorkHistory)
	p.printImprovementAreas(profile.AreasOfImprovement)
}

func salaryRange(lo, hi *int) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%d - %d", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("from %d", *lo)
	default:
		return fmt.Sprintf("up to %d", *hi)
	}
}

func (p *Printer) printWorkHistory(history []types.WorkHistoryEntry) {
	if len(history) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(history), maxItemsToShow)
	for i, entry := range history[:count] {
		marker := " "
		if entry.IsCurrent() {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s, %s\n", marker, entry.Position, entry.Company)
		if entry.Duration != nil {
			fmt.Fprintf(&sb, "    %s\n", *entry.Duration)
		}
		if len(entry.Skills) > 0 {
			fmt.Fprintf(&sb, "    [%s]\n", strings.Join(entry.Skills, ", "))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(history) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more roles", len(history)-maxItemsToShow)
	}

	p.printBox("WORK HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

func (p *Printer) printImprovementAreas(areas []types.ImprovementArea) {
	if len(areas) == 0 {
		return
	}

	var sb strings.Builder
	for i, area := range areas {
		fmt.Fprintf(&sb, "⚠ %s\n", area.Title)
		fmt.Fprintf(&sb, "  %s\n", area.Description)
		if i < len(areas)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("AREAS OF IMPROVEMENT", strings.TrimSuffix(sb.String(), "\n"))
}
