// Package render prints a session transcript to a plain io.Writer.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/go-go-golems/csvassist/pkg/session"
)

const typingText = "assistant is typing..."

type styles struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	dim       lipgloss.Style
	status    lipgloss.Style
	body      lipgloss.Style
}

// WriterRenderer is a session.Renderer for line-oriented output. On a
// terminal it uses colors and a transient typing line; otherwise it writes
// plain text.
type WriterRenderer struct {
	mu     sync.Mutex
	w      io.Writer
	tty    bool
	width  int
	styles styles
}

var _ session.Renderer = (*WriterRenderer)(nil)

func NewWriterRenderer(w io.Writer) *WriterRenderer {
	tty, width := inspect(w)

	r := lipgloss.NewRenderer(w)
	if !tty {
		r.SetColorProfile(termenv.Ascii)
	}

	body := r.NewStyle()
	if width > 0 {
		body = body.Width(width)
	}

	return &WriterRenderer{
		w:     w,
		tty:   tty,
		width: width,
		styles: styles{
			user:      r.NewStyle().Bold(true),
			assistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
			dim:       r.NewStyle().Foreground(lipgloss.Color("240")),
			status:    r.NewStyle().Foreground(lipgloss.Color("63")),
			body:      body,
		},
	}
}

func inspect(w io.Writer) (tty bool, width int) {
	f, ok := w.(*os.File)
	if !ok {
		return false, 0
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false, 0
	}
	width, _, err := term.GetSize(int(fd))
	if err != nil {
		return true, 0
	}
	return true, width
}

func (r *WriterRenderer) RenderTurn(turn session.Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := r.styles.assistant.Render("Assistant")
	if turn.Role == session.RoleUser {
		label = r.styles.user.Render("You")
	}
	content := turn.Content
	if r.width > 0 {
		content = r.styles.body.Render(content)
	}
	_, _ = fmt.Fprintf(r.w, "%s\n%s\n\n", label, content)
}

func (r *WriterRenderer) ShowTyping() func() {
	if !r.tty {
		return func() {}
	}

	r.mu.Lock()
	_, _ = io.WriteString(r.w, r.styles.dim.Render(typingText))
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			_, _ = io.WriteString(r.w, "\r\x1b[2K")
		})
	}
}

func (r *WriterRenderer) SetUploadStatus(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, "%s %s\n\n", r.styles.dim.Render("upload:"), r.styles.status.Render(status))
}

func (r *WriterRenderer) Focus() {}

// Lines writes free-form lines that are not part of the transcript.
func (r *WriterRenderer) Lines(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	for _, line := range lines {
		// styled one at a time so lines are not padded to a common width
		for _, l := range strings.Split(line, "\n") {
			b.WriteString(r.styles.dim.Render(l))
			b.WriteString("\n")
		}
	}
	_, _ = io.WriteString(r.w, b.String())
}
