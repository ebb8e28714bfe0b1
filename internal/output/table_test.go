package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costscope/internal/models"
	"costscope/internal/output"
)

func renderToString(findings []models.CheckResult, opts output.TableOptions) string {
	var buf bytes.Buffer
	output.RenderTable(&buf, findings, opts)
	return buf.String()
}

func oneFinding(overrides ...func(*models.CheckResult)) models.CheckResult {
	f := models.CheckResult{
		ID:        "idle-i-0123456789abcdef0",
		CheckType: models.CheckIdleResource,
		Severity:  models.SeverityHigh,
		Resource: models.Resource{
			ID:       "i-0123456789abcdef0",
			Name:     "web-server",
			Type:     models.ResourceInstance,
			Provider: models.ProviderAWS,
			Region:   "us-east-1",
		},
		Title:           "Idle Instance: web-server",
		MonthlySavings:  decimal.NewFromInt(42),
		AnnualSavings:   decimal.NewFromInt(504),
		ConfidenceScore: 0.9,
	}
	for _, fn := range overrides {
		fn(&f)
	}
	return f
}

func TestRenderTable_Columns(t *testing.T) {
	out := renderToString([]models.CheckResult{oneFinding()}, output.TableOptions{})

	assert.Contains(t, out, "RESOURCE")
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "SAVINGS/MO")
	assert.Contains(t, out, "i-0123456789abcdef0")
	assert.Contains(t, out, "us-east-1")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "$42.00")
	assert.NotContains(t, out, "CONF")
}

func TestRenderTable_ConfidenceColumn(t *testing.T) {
	out := renderToString([]models.CheckResult{oneFinding()}, output.TableOptions{IncludeConfidence: true})
	assert.Contains(t, out, "CONF")
	assert.Contains(t, out, "0.90")
}

func TestRenderTable_Empty(t *testing.T) {
	out := renderToString(nil, output.TableOptions{})
	assert.Equal(t, "No findings.\n", out)
}

func TestRenderTable_ColorOnlyWhenEnabled(t *testing.T) {
	plain := renderToString([]models.CheckResult{oneFinding()}, output.TableOptions{})
	assert.NotContains(t, plain, "\033[", "plain output must be ANSI free")

	colored := renderToString([]models.CheckResult{oneFinding()}, output.TableOptions{Colored: true})
	assert.Contains(t, colored, "\033[0;31m", "high severity should be red")
}

func TestColorSeverity(t *testing.T) {
	assert.Equal(t, "critical", output.ColorSeverity(models.SeverityCritical, false))
	assert.Equal(t, "\033[1;31mcritical\033[0m", output.ColorSeverity(models.SeverityCritical, true))
	assert.Equal(t, "info", output.ColorSeverity(models.SeverityInfo, true),
		"info has no color code")
}

func TestShortenMessage(t *testing.T) {
	assert.Equal(t, "short", output.ShortenMessage("short", 10))
	assert.Equal(t, "a very ...", output.ShortenMessage("a very long message", 10))
	assert.Len(t, output.ShortenMessage(strings.Repeat("x", 100), 4), 4)
}

func TestRenderSummary(t *testing.T) {
	report := &models.AnalysisReport{
		ReportID:    "rep-1",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Provider:    models.ProviderAWS,
		Regions:     []string{"us-east-1", "eu-west-1"},
		Summary: models.AnalysisSummary{
			TotalFindings:       3,
			HighFindings:        2,
			MediumFindings:      1,
			TotalMonthlySavings: decimal.NewFromInt(450),
			TotalAnnualSavings:  decimal.NewFromInt(5400),
			FailedChecks:        1,
		},
		Failures: []models.CheckFailureRecord{
			{CheckName: "reserved-instance-utilization", Message: "cost explorer unreachable"},
		},
	}

	var buf bytes.Buffer
	output.RenderSummary(&buf, report, false)
	out := buf.String()

	require.Contains(t, out, "rep-1")
	assert.Contains(t, out, "us-east-1, eu-west-1")
	assert.Contains(t, out, "3 total")
	assert.Contains(t, out, "2 high")
	assert.Contains(t, out, "1 medium")
	assert.Contains(t, out, "$450.00/month")
	assert.Contains(t, out, "$5400.00/year")
	assert.Contains(t, out, "Failed checks: 1")
	assert.Contains(t, out, "cost explorer unreachable")
}
