package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gosurv/domain/survival"
)

// Generator renders an analysis run as a markdown report with an optional
// HTML rendering, in the spirit of the notebook-style write-ups this tool
// replaces.
type Generator struct {
	title string
}

// NewGenerator creates a report generator.
func NewGenerator(title string) *Generator {
	return &Generator{title: title}
}

// Markdown renders the cohort summary and survival table as markdown.
func (g *Generator) Markdown(summary survival.CohortSummary, curve *survival.SurvivalCurve) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", g.title)
	fmt.Fprintf(&b, "## Cohort: %s\n\n", summary.Cohort)

	fmt.Fprintf(&b, "| Subjects | Gap records | Events | Censored | Mean gap | Median gap | Q1 | Q3 | Max gap |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %.3f | %.3f | %.3f | %.3f | %.3f |\n\n",
		summary.Subjects, summary.Records, summary.Events, summary.Censored,
		summary.MeanGap, summary.MedianGap, summary.Q1Gap, summary.Q3Gap, summary.MaxGap)

	fmt.Fprintf(&b, "## Survival function (%s, %.0f%% CI)\n\n", curve.Weighting, curve.Confidence*100)
	fmt.Fprintf(&b, "| time | n.risk | n.event | survival | std.err | lower | upper |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|---|\n")
	for _, p := range curve.Points {
		fmt.Fprintf(&b, "| %.3f | %.2f | %.2f | %.4f | %s | %s | %s |\n",
			p.Time, p.NRisk, p.NEvent, p.Survival,
			formatMaybeNaN(p.StdErr), formatMaybeNaN(p.Lower), formatMaybeNaN(p.Upper))
	}
	b.WriteString("\n")

	g.writeNarrative(&b, summary, curve)
	return b.String()
}

// HTML renders the markdown report to a standalone HTML fragment.
func (g *Generator) HTML(summary survival.CohortSummary, curve *survival.SurvivalCurve) []byte {
	md := g.Markdown(summary, curve)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// writeNarrative adds the prose interpretation of the curve.
func (g *Generator) writeNarrative(b *strings.Builder, summary survival.CohortSummary, curve *survival.SurvivalCurve) {
	b.WriteString("## Interpretation\n\n")

	fmt.Fprintf(b, "The cohort contributes %d gap records from %d subjects, of which %d are observed events and %d are censored. ",
		summary.Records, summary.Subjects, summary.Events, summary.Censored)

	if median, ok := curve.MedianTime(); ok {
		fmt.Fprintf(b, "The estimated median gap time is %.3f: half of the inter-event gaps are expected to close by then. ", median)
	} else {
		b.WriteString("The survival estimate never drops to 0.5 within the observed gaps, so the median gap time is not reached. ")
	}

	if curve.Weighting != "unweighted" {
		fmt.Fprintf(b, "Recurrence correlation was adjusted with the %s weighting (alpha=%.4g, %d iterations). ",
			curve.Weighting, curve.Alpha, curve.Iterations)
	}

	if last := lastPoint(curve); last != nil && math.IsNaN(last.StdErr) {
		b.WriteString("The variance is undefined at the tail because the risk set is exhausted there; treat the final steps as point estimates only. ")
	}
	b.WriteString("\n")
}

func lastPoint(curve *survival.SurvivalCurve) *survival.SurvivalPoint {
	if len(curve.Points) == 0 {
		return nil
	}
	return &curve.Points[len(curve.Points)-1]
}

func formatMaybeNaN(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%.4f", v)
}
