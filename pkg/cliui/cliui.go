// Package cliui provides reusable terminal UI helpers for folio CLI commands:
// step spinners, result styles and markdown rendering of pages.
package cliui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	RankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	ScoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	TitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	TextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	HeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const frameInterval = 80 * time.Millisecond

// Step runs fn under msg and finishes the line with a mark and the elapsed
// time. The spinner is only drawn when w is a terminal, so piped output gets
// a single result line.
func Step(w io.Writer, msg string, fn func() error) error {
	stop := func() {}
	if IsTerminal(w) {
		stop = spin(w, msg)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	stop()

	fmt.Fprintf(w, "\r  %s %s %s\n", Mark(err), msg,
		StepStyle.Render("("+FormatDuration(elapsed)+")"))
	return err
}

// spin draws frames on w until the returned func is called. The func blocks
// until the last frame is written.
func spin(w io.Writer, msg string) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-stopped
	}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// PageWidth is the wrap width of rendered page text.
const PageWidth = 80

// RenderMarkdown renders page text for the terminal. On failure the raw text
// is returned along with the error.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(PageWidth))
	if err != nil {
		return content, err
	}
	out, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return out, nil
}
