package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"digital.vasic.minitest/pkg/testcase"
)

// Default markers printed before a test title.
const (
	PassMarker = "✅"
	FailMarker = "💔"
)

// Color modes for ConsoleReporter.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiGray  = "\033[90m"
)

// ConsoleReporter prints one line per test: the pass or fail
// marker followed by the title. A failure is followed by its
// detail, indented.
type ConsoleReporter struct {
	mu         sync.Mutex
	out        io.Writer
	color      bool
	stacks     bool
	passMarker string
	failMarker string
}

// ConsoleOption configures a ConsoleReporter.
type ConsoleOption func(*ConsoleReporter)

// WithColor sets the color mode: ColorAuto colors only when out
// is a terminal and NO_COLOR is unset.
func WithColor(mode string) ConsoleOption {
	return func(c *ConsoleReporter) {
		switch mode {
		case ColorAlways:
			c.color = true
		case ColorNever:
			c.color = false
		default:
			c.color = isTerminal(c.out)
		}
	}
}

// WithStacks includes the goroutine stack of recovered panics.
func WithStacks(enabled bool) ConsoleOption {
	return func(c *ConsoleReporter) {
		c.stacks = enabled
	}
}

// WithMarkers replaces the pass and fail markers.
func WithMarkers(pass, fail string) ConsoleOption {
	return func(c *ConsoleReporter) {
		c.passMarker = pass
		c.failMarker = fail
	}
}

// NewConsoleReporter creates a reporter writing to out. Color is
// off unless WithColor enables it.
func NewConsoleReporter(
	out io.Writer,
	opts ...ConsoleOption,
) *ConsoleReporter {
	c := &ConsoleReporter{
		out:        out,
		passMarker: PassMarker,
		failMarker: FailMarker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (c *ConsoleReporter) paint(color, s string) string {
	if !c.color {
		return s
	}
	return color + s + ansiReset
}

// ReportResult prints the pass or fail line for result.
func (c *ConsoleReporter) ReportResult(
	result *testcase.Result,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if result.Passed() {
		_, err := fmt.Fprintf(
			c.out, "%s %s\n",
			c.passMarker, c.paint(ansiGreen, result.Title),
		)
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(
		&sb, "%s %s\n",
		c.failMarker, c.paint(ansiRed, result.Title),
	)
	for _, line := range c.detailLines(result) {
		sb.WriteString("    ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	_, err := io.WriteString(c.out, sb.String())
	return err
}

func (c *ConsoleReporter) detailLines(
	result *testcase.Result,
) []string {
	msg := result.Error
	if msg == "" && result.Detail != nil {
		msg = result.Detail.Error()
	}
	if msg == "" {
		msg = string(result.Status)
	}
	lines := strings.Split(strings.TrimRight(msg, "\n"), "\n")

	var pe *testcase.PanicError
	if c.stacks && errors.As(result.Detail, &pe) {
		stack := strings.TrimRight(string(pe.Stack), "\n")
		for _, line := range strings.Split(stack, "\n") {
			lines = append(lines, c.paint(ansiGray, line))
		}
	}
	return lines
}

// ReportSummary prints the totals line.
func (c *ConsoleReporter) ReportSummary(summary *Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := fmt.Sprintf(
		"%d tests, %d passed, %d failed",
		summary.Total, summary.Passed, summary.Failed,
	)
	if summary.TimedOut > 0 {
		line += fmt.Sprintf(" (%d timed out)", summary.TimedOut)
	}
	line += fmt.Sprintf(" in %v", summary.TotalDuration)

	color := ansiGreen
	if summary.Failed > 0 {
		color = ansiRed
	}
	_, err := fmt.Fprintf(c.out, "\n%s\n", c.paint(color, line))
	return err
}
