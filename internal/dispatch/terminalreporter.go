package dispatch

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/embedkit/webcodecs-core/internal/state"
)

// TerminalReporter renders live queue/backpressure activity for a codec to
// the terminal. It is a diagnostic aid driven by direct calls from
// cmd/codecctl — it never participates in the core's correctness path.
type TerminalReporter struct {
	mu       sync.Mutex
	progress *progressbar.ProgressBar
	hardCap  int

	cyan    *color.Color
	green   *color.Color
	yellow  *color.Color
	red     *color.Color
	magenta *color.Color
	bold    *color.Color
}

// NewTerminalReporter creates a terminal reporter.
func NewTerminalReporter() *TerminalReporter {
	return &TerminalReporter{
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
	}
}

// CodecConfigured announces a codec transitioning to configured.
func (r *TerminalReporter) CodecConfigured(kind state.CodecKind, codecID string) {
	fmt.Println()
	_, _ = r.cyan.Printf("%s\n", kind.String())
	fmt.Printf("  %s %s\n", r.bold.Sprint("codec:"), codecID)
}

// StartQueueBar initializes the live CWQ-depth progress bar for a codec,
// scaled 0..hardCap.
func (r *TerminalReporter) StartQueueBar(hardCap int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hardCap = hardCap
	r.progress = progressbar.NewOptions(
		hardCap,
		progressbar.OptionSetDescription("queue depth"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "CWQ [",
			BarEnd:        "]",
		}),
	)
}

// QueueDepth updates the queue-depth bar and colors its description
// depending on whether outstanding work has crossed the soft threshold.
func (r *TerminalReporter) QueueDepth(outstanding, softThreshold int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}
	_ = r.progress.Set(outstanding)

	var desc string
	switch {
	case outstanding >= r.hardCap:
		desc = r.red.Sprintf("%d/%d (at hard cap)", outstanding, r.hardCap)
	case outstanding >= softThreshold:
		desc = r.yellow.Sprintf("%d/%d (backpressure)", outstanding, r.hardCap)
	default:
		desc = r.green.Sprintf("%d/%d (ready)", outstanding, r.hardCap)
	}
	r.progress.Describe(desc)
}

// FinishQueueBar releases the progress bar.
func (r *TerminalReporter) FinishQueueBar() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
}

// Output reports a delivered output.
func (r *TerminalReporter) Output(kind state.CodecKind, summary string) {
	fmt.Printf("  %s %s\n", r.magenta.Sprint("›"), summary)
	_ = kind
}

// Error reports an error callback firing.
func (r *TerminalReporter) Error(kind state.CodecKind, err error) {
	_, _ = fmt.Fprintln(os.Stderr)
	_, _ = r.red.Fprintf(os.Stderr, "ERROR %s: %v\n", kind.String(), err)
}

// Ready reports a codec's ready signal completing (outstanding work dropped
// below the soft threshold).
func (r *TerminalReporter) Ready(kind state.CodecKind) {
	fmt.Printf("  %s %s\n", r.green.Sprint("ready"), kind.String())
}

// Closed reports a codec transitioning to closed, with the reason (nil for
// a normal user-initiated close).
func (r *TerminalReporter) Closed(kind state.CodecKind, reason error) {
	r.FinishQueueBar()
	if reason != nil {
		_, _ = r.red.Printf("%s closed: %v\n", kind.String(), reason)
		return
	}
	fmt.Printf("%s %s\n", r.bold.Sprint("closed:"), kind.String())
}
