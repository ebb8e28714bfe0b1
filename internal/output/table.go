package output

import (
	"fmt"
	"io"
	"strings"

	"costscope/internal/models"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// TableOptions controls which columns RenderTable renders and how severity is coloured.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeConfidence adds a CONF column with the 0..1 confidence score.
	IncludeConfidence bool
}

// ColorSeverity wraps a severity string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorSeverity(sev models.Severity, colored bool) string {
	s := string(sev)
	if !colored {
		return s
	}
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed + s + ansiReset
	case models.SeverityHigh:
		return ansiRed + s + ansiReset
	case models.SeverityMedium:
		return ansiYellow + s + ansiReset
	case models.SeverityLow:
		return ansiBlue + s + ansiReset
	default:
		return s
	}
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell returns the severity padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	if !colored {
		return fmt.Sprintf("%-*s", width, text)
	}
	var code string
	switch sev {
	case models.SeverityCritical:
		code = ansiBoldRed
	case models.SeverityHigh:
		code = ansiRed
	case models.SeverityMedium:
		code = ansiYellow
	case models.SeverityLow:
		code = ansiBlue
	default:
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max bytes for ID/label columns.
// A single-char ellipsis replaces the last byte when truncation occurs.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// RenderTable writes a formatted findings table to w.
// The separator line width is derived from the header row so all rows align.
//
// Column order:
//
//	RESOURCE  REGION  SEVERITY  CHECK  TITLE  SAVINGS/MO  [CONF]
func RenderTable(w io.Writer, findings []models.CheckResult, opts TableOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	// Fixed column display widths.
	const (
		wResource = 30
		wRegion   = 15
		wSeverity = 10
		wCheck    = 22
		wTitle    = 50
		wSavings  = 11
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wResource, "RESOURCE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wRegion, "REGION"))
	hb.WriteString(fmt.Sprintf("  %-*s", wSeverity, "SEVERITY"))
	hb.WriteString(fmt.Sprintf("  %-*s", wCheck, "CHECK"))
	hb.WriteString(fmt.Sprintf("  %-*s", wTitle, "TITLE"))
	hb.WriteString(fmt.Sprintf("  %*s", wSavings, "SAVINGS/MO"))
	if opts.IncludeConfidence {
		hb.WriteString("  CONF")
	}
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, f := range findings {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wResource, truncateField(f.Resource.ID, wResource)))
		rb.WriteString(fmt.Sprintf("  %-*s", wRegion, truncateField(f.Resource.Region, wRegion)))
		rb.WriteString("  " + severityCell(f.Severity, wSeverity, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*s", wCheck, truncateField(string(f.CheckType), wCheck)))
		rb.WriteString(fmt.Sprintf("  %-*s", wTitle, ShortenMessage(f.Title, wTitle)))
		rb.WriteString(fmt.Sprintf("  %*s", wSavings, "$"+f.MonthlySavings.StringFixed(2)))
		if opts.IncludeConfidence {
			rb.WriteString(fmt.Sprintf("  %.2f", f.ConfidenceScore))
		}
		fmt.Fprintln(w, rb.String())
	}
}

// RenderSummary writes the report summary block to w.
func RenderSummary(w io.Writer, report *models.AnalysisReport, colored bool) {
	s := report.Summary
	fmt.Fprintf(w, "Report %s (%s)\n", report.ReportID, report.Provider)
	fmt.Fprintf(w, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	if len(report.Regions) > 0 {
		fmt.Fprintf(w, "Regions:   %s\n", strings.Join(report.Regions, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings:  %d total", s.TotalFindings)
	if s.TotalFindings > 0 {
		parts := make([]string, 0, 5)
		for _, sc := range []struct {
			sev   models.Severity
			count int
		}{
			{models.SeverityCritical, s.CriticalFindings},
			{models.SeverityHigh, s.HighFindings},
			{models.SeverityMedium, s.MediumFindings},
			{models.SeverityLow, s.LowFindings},
			{models.SeverityInfo, s.InfoFindings},
		} {
			if sc.count > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", sc.count, ColorSeverity(sc.sev, colored)))
			}
		}
		fmt.Fprintf(w, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Savings:   $%s/month, $%s/year\n",
		s.TotalMonthlySavings.StringFixed(2), s.TotalAnnualSavings.StringFixed(2))
	if s.FailedChecks > 0 {
		fmt.Fprintf(w, "Failed checks: %d\n", s.FailedChecks)
		for _, rec := range report.Failures {
			fmt.Fprintf(w, "  %s: %s\n", rec.CheckName, rec.Message)
		}
	}
}
