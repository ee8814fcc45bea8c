package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/modforge/internal/build"
	"github.com/mvp-joe/modforge/internal/definition"
)

// CLIProgressReporter implements build.ProgressReporter with a progress bar.
type CLIProgressReporter struct {
	out   io.Writer
	quiet bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

var _ build.ProgressReporter = (*CLIProgressReporter)(nil)

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{out: out, quiet: quiet}
}

func (c *CLIProgressReporter) OnDiscoveryStart(root string) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Discovering components in %s...\n", root)
}

func (c *CLIProgressReporter) OnDiscoveryComplete(components int) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Compiling %s components\n", formatNumber(components))
	if components == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar = progressbar.NewOptions(components,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Compiling"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("modules/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnComponentDone(desc definition.Descriptor, cached bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar != nil {
		c.bar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(report *build.Report) {
	c.mu.Lock()
	if c.bar != nil {
		c.bar.Finish()
		c.bar = nil
	}
	c.mu.Unlock()

	if c.quiet {
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "✓ Build complete: %s modules in %.1fs\n",
		formatNumber(len(report.Definitions)), report.Duration.Seconds())
	fmt.Fprintf(c.out, "  Reused:   %s\n", formatNumber(report.Cached))
	fmt.Fprintf(c.out, "  Failed:   %s\n", formatNumber(len(report.Failures)))
	for _, f := range report.Failures {
		fmt.Fprintf(c.out, "  ✗ %s: %v\n", f.Descriptor.DescriptorName(), f.Err)
	}
}

// formatNumber formats integer with thousand separators.
// Examples: 1234 -> "1,234", 1234567 -> "1,234,567"
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
