package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/qcrawl/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format, for documentation
// and sharing. The nao1215/markdown library gives type-safe generation
// with tables, alerts, and mermaid charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounters(md, summary)
	w.writeTopPages(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run identification table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H1("Qcrawl Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + summary.RunID + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Finished", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			{"Steps", strconv.Itoa(summary.Steps)},
			{"Total Reward", fmt.Sprintf("%.2f", summary.TotalReward)},
			{"Avg Reward", fmt.Sprintf("%.4f", summary.AvgReward())},
		},
	})
	md.PlainText("")
}

// writeCounters writes the frontier counter table and a pie chart of how
// the enqueued requests ended up.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Frontier")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Enqueued", strconv.Itoa(summary.Enqueued)},
			{"Processed", strconv.Itoa(summary.Processed)},
			{"Dropped", strconv.Itoa(summary.Dropped)},
			{"Still pending", strconv.Itoa(summary.Todo())},
			{"Domains open", strconv.Itoa(summary.DomainsOpen)},
			{"Domains closed", strconv.Itoa(summary.DomainsClosed)},
		},
	})
	md.PlainText("")

	if summary.Enqueued > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of request outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.CrawlSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Request Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.Processed > 0 {
		chart.LabelAndIntValue("Processed", uint64(summary.Processed))
	}
	if summary.Dropped > 0 {
		chart.LabelAndIntValue("Dropped", uint64(summary.Dropped))
	}
	if todo := summary.Todo(); todo > 0 {
		chart.LabelAndIntValue("Pending", uint64(todo))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert summarizing how the run went.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.CrawlSummary) {
	switch {
	case summary.TotalReward == 0:
		md.Warningf("The crawl found no rewarding pages in %d steps. Check the goal keywords and seeds.", summary.Steps)
	case summary.DomainsClosed > 0:
		md.Tip(fmt.Sprintf("Goal achieved on %d domain(s); their slots were closed early.", summary.DomainsClosed))
	default:
		md.Note(fmt.Sprintf("The crawl collected %.2f total reward over %d steps.", summary.TotalReward, summary.Steps))
	}
	md.PlainText("")
}

// writeTopPages writes the highest-reward pages table.
func (w *MarkdownWriter) writeTopPages(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Top Pages")
	md.PlainText("")

	if len(summary.TopPages) == 0 {
		md.PlainText("No rewarding pages found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.TopPages))
	for i, page := range summary.TopPages {
		rows[i] = []string{
			fmt.Sprintf("%.2f", page.Reward),
			truncateString(page.URL, 60),
			page.Domain,
			strconv.Itoa(page.Step),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Reward", "URL", "Domain", "Step"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [qcrawl](https://github.com/nao1215/qcrawl)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
