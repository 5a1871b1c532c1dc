package summarizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ideamans/go-l10n"

	"github.com/user/h264session/pkg/settings"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", l10n.T("Encoding Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", l10n.T("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	// Run
	fmt.Fprintf(&b, "## %s\n\n", l10n.T("Results"))
	tableHeader(&b)
	row(&b, l10n.T("Backend"), s.Backend)
	source := s.Source.Kind
	if s.Source.Detail != "" {
		source += " (" + s.Source.Detail + ")"
	}
	row(&b, l10n.T("Source"), source)
	row(&b, l10n.T("Frames"), fmt.Sprintf("%d", s.Run.Frames))
	row(&b, l10n.T("Elapsed"), fmt.Sprintf("%d ms", s.Run.Elapsed.Milliseconds()))
	row(&b, l10n.T("Frame Rate"), fmt.Sprintf("%.1f fps", s.Run.FramesPerSecond()))

	results := make([]string, 0, len(s.Run.Results))
	for name := range s.Run.Results {
		results = append(results, name)
	}
	sort.Strings(results)
	for _, name := range results {
		row(&b, name, fmt.Sprintf("%d", s.Run.Results[name]))
	}
	if s.Run.ChangesApplied+s.Run.ChangesRejected > 0 {
		row(&b, l10n.T("Changes"), l10n.F("%d applied, %d rejected", s.Run.ChangesApplied, s.Run.ChangesRejected))
	}
	if s.Run.LastStatus != "" {
		row(&b, l10n.T("Last Status"), s.Run.LastStatus)
	}
	b.WriteString("\n")

	// Settings
	fmt.Fprintf(&b, "## %s\n\n", l10n.T("Settings"))
	tableHeader(&b)
	for _, name := range settings.Names() {
		v, _ := s.Settings.Get(name)
		row(&b, string(name), fmt.Sprintf("%v", v))
	}
	b.WriteString("\n")

	// Output
	fmt.Fprintf(&b, "## %s\n\n", l10n.T("Output"))
	tableHeader(&b)
	if s.Output.Dir != "" {
		row(&b, l10n.T("Directory"), s.Output.Dir)
	}
	row(&b, l10n.T("Segments"), fmt.Sprintf("%d", len(s.Output.Segments)))
	row(&b, l10n.T("Fragments"), fmt.Sprintf("%d", s.Output.Fragments))
	row(&b, l10n.T("Samples"), fmt.Sprintf("%d", s.Output.Samples))
	row(&b, l10n.T("Total Size"), formatBytes(s.Output.Bytes))
	if s.Output.Dropped > 0 {
		row(&b, l10n.T("Dropped Samples"), fmt.Sprintf("%d", s.Output.Dropped))
	}
	if len(s.Output.Segments) > 0 {
		b.WriteString("\n")
		for _, name := range s.Output.Segments {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
	}

	return b.String()
}

func tableHeader(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", l10n.T("Item"), l10n.T("Value"))
}

func row(b *strings.Builder, item, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", item, strings.ReplaceAll(value, "|", "\\|"))
}

// formatBytes formats a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n >= unit*unit*unit:
		return fmt.Sprintf("%.2f GB", float64(n)/(unit*unit*unit))
	case n >= unit*unit:
		return fmt.Sprintf("%.2f MB", float64(n)/(unit*unit))
	case n >= unit:
		return fmt.Sprintf("%.2f KB", float64(n)/unit)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
