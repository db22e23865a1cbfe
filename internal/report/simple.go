package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/qcrawl/internal/model"
)

// SimpleWriter outputs human-readable text summaries, designed for
// terminal display. Plain ASCII formatting keeps the output pipeable and
// readable in any terminal.
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-page breakdown of the top rewarding pages.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the top-page breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the crawl summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounters(&sb, summary)
	if w.verbose {
		w.writeTopPages(&sb, summary)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run identification block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         QCRAWL RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run ID:      %s\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("Started:     %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Finished:    %s\n", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:    %s\n", summary.FinishedAt.Sub(summary.StartedAt).Round(1e9)))
	sb.WriteString("\n")
}

// writeCounters writes the learning and frontier counters.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Steps:          %d\n", summary.Steps))
	sb.WriteString(fmt.Sprintf("  Total reward:   %.2f\n", summary.TotalReward))
	sb.WriteString(fmt.Sprintf("  Avg reward:     %.4f\n", summary.AvgReward()))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Enqueued:       %d\n", summary.Enqueued))
	sb.WriteString(fmt.Sprintf("  Processed:      %d\n", summary.Processed))
	sb.WriteString(fmt.Sprintf("  Dropped:        %d\n", summary.Dropped))
	sb.WriteString(fmt.Sprintf("  Still pending:  %d\n", summary.Todo()))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Domains open:   %d\n", summary.DomainsOpen))
	sb.WriteString(fmt.Sprintf("  Domains closed: %d\n", summary.DomainsClosed))
	sb.WriteString("\n")
}

// writeTopPages writes the highest-reward pages of the run.
func (w *SimpleWriter) writeTopPages(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOP PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.TopPages) == 0 {
		sb.WriteString("  No rewarding pages found\n")
	} else {
		for _, page := range summary.TopPages {
			sb.WriteString(fmt.Sprintf("  [%6.2f] %s (step %d)\n", page.Reward, page.URL, page.Step))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by qcrawl\n")
	sb.WriteString("https://github.com/nao1215/qcrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
