package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Barcode Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Setting"), t("Value"))
	fmt.Fprintf(&b, "| %s | %d px |\n", t("Width"), s.Settings.Width)
	if s.Settings.Height > 0 {
		fmt.Fprintf(&b, "| %s | %d px |\n", t("Height"), s.Settings.Height)
	} else {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Height"), t("Input height"))
	}
	fmt.Fprintf(&b, "| %s | %d px |\n", t("Bar Width"), s.Settings.BarWidth)
	fmt.Fprintf(&b, "| %s | %s |\n", t("Mode"), s.Settings.Mode)
	fmt.Fprintf(&b, "| %s | %s |\n", t("Smoothed"), yesNo(t, s.Settings.Smooth))
	fmt.Fprintf(&b, "| %s | %d |\n\n", t("Workers"), s.Settings.Workers)

	fmt.Fprintf(&b, "## %s\n\n", t("Totals"))
	fmt.Fprintf(&b, "- %s: %d\n", t("Succeeded"), s.Totals.Succeeded)
	fmt.Fprintf(&b, "- %s: %d\n", t("Skipped"), s.Totals.Skipped)
	fmt.Fprintf(&b, "- %s: %d\n", t("Failed"), s.Totals.Failed)
	fmt.Fprintf(&b, "- %s: %d\n", t("Cancelled"), s.Totals.Cancelled)
	if s.Elapsed > 0 {
		fmt.Fprintf(&b, "- %s: %s\n", t("Elapsed"), formatDuration(s.Elapsed))
	}
	b.WriteString("\n")

	if len(s.Files) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Files"))
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n|---|---|---|---|---|\n",
		t("Input"), t("Status"), t("Output"), t("Size"), t("Time"))
	for _, e := range s.Files {
		size := "-"
		if e.Width > 0 && e.Height > 0 {
			size = fmt.Sprintf("%dx%d", e.Width, e.Height)
		}
		output := e.Output
		if e.SmoothedPath != "" {
			output += "<br>" + e.SmoothedPath
		}
		if output == "" {
			output = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			escape(e.Input), t(e.Status), escape(output), size, formatDuration(e.Elapsed))
	}

	var problems []FileEntry
	for _, e := range s.Files {
		if e.Error != "" {
			problems = append(problems, e)
		}
	}
	if len(problems) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Errors"))
		for _, e := range problems {
			fmt.Fprintf(&b, "- `%s` (%s): %s\n", e.Input, e.Stage, firstLine(e.Error))
		}
	}

	return b.String()
}

func yesNo(t func(string) string, v bool) string {
	if v {
		return t("Yes")
	}
	return t("No")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}

// escape keeps table cells intact.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// firstLine drops decoder stderr from list items.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
