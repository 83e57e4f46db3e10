package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	noted "github.com/MrEthical07/noted"
	"github.com/MrEthical07/noted/metrics/export/internaldefs"
)

// Source is what the exporter reads; *noted.Client implements it.
type Source interface {
	MetricsSnapshot() noted.MetricsSnapshot
	EventsDropped() uint64
}

// Exporter renders a Source on demand.
type Exporter struct {
	source Source
}

// NewExporter returns an exporter reading source, usually a *noted.Client.
func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text, "" when metrics are disabled.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.EventsDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		writeHistogram(&b, def.Name, def.Help, cumulative)
	}

	writeCounter(&b, internaldefs.EventsDroppedName, internaldefs.EventsDroppedHelp, dropped)

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	writeHeader(b, name, help, "counter")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	b.WriteByte('\n')

	// Snapshots keep bucket counts only.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
