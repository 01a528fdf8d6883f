package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tcnksm/go-input"

	"github.com/go-go-golems/csvassist/pkg/render"
	"github.com/go-go-golems/csvassist/pkg/tokens"
)

// LineReader yields one line of user input per call and io.EOF once the
// input is exhausted.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

type scannerReader struct {
	scanner *bufio.Scanner
}

// NewScannerReader reads lines from piped or redirected input.
func NewScannerReader(r io.Reader) LineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scannerReader{scanner: s}
}

func (s *scannerReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", errors.Wrap(err, "reading input")
	}
	return "", io.EOF
}

// eofReader remembers whether the wrapped reader has reached EOF, which
// go-input reports as an empty answer.
type eofReader struct {
	mu  sync.Mutex
	r   io.Reader
	eof bool
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if errors.Is(err, io.EOF) {
		e.mu.Lock()
		e.eof = true
		e.mu.Unlock()
	}
	return n, err
}

func (e *eofReader) reachedEOF() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eof
}

type promptReader struct {
	ui     *input.UI
	source *eofReader
	query  string
}

// NewPromptReader asks for each line on an interactive terminal. Ctrl+C
// while waiting for input ends the session like EOF does.
func NewPromptReader(in io.Reader, out io.Writer) LineReader {
	source := &eofReader{r: in}
	return &promptReader{
		ui: &input.UI{
			Writer: out,
			Reader: source,
		},
		source: source,
		query:  ">",
	}
}

func (p *promptReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer, err := p.ui.Ask(p.query, &input.Options{
		HideOrder: true,
	})
	if err != nil {
		if errors.Is(err, input.ErrInterrupted) {
			return "", io.EOF
		}
		return "", errors.Wrap(err, "reading input")
	}
	if answer == "" && p.source.reachedEOF() {
		return "", io.EOF
	}
	return answer, nil
}

// REPL is the line-oriented front-end used when stdin or stdout is not a
// terminal, or when a full-screen UI is not wanted.
type REPL struct {
	conv    Conversation
	out     *render.WriterRenderer
	reader  LineReader
	counter *tokens.Counter
	copyFn  func(string) error
}

type REPLOption func(*REPL)

func WithREPLTokenCounter(c *tokens.Counter) REPLOption {
	return func(r *REPL) {
		r.counter = c
	}
}

func WithREPLClipboard(copyFn func(string) error) REPLOption {
	return func(r *REPL) {
		r.copyFn = copyFn
	}
}

// NewREPL wires a conversation to a reader and the renderer the
// conversation was created with.
func NewREPL(conv Conversation, out *render.WriterRenderer, reader LineReader, options ...REPLOption) *REPL {
	r := &REPL{
		conv:   conv,
		out:    out,
		reader: reader,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.counter == nil {
		r.counter = &tokens.Counter{}
	}
	return r
}

// Run starts the conversation and processes input lines until EOF, /quit or
// cancellation of ctx.
func (r *REPL) Run(ctx context.Context) error {
	r.conv.Start()

	for {
		line, err := r.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if quit := r.handleLine(ctx, line); quit {
			return nil
		}
	}
}

func (r *REPL) handleLine(ctx context.Context, line string) bool {
	c := ParseLine(line)
	switch c.Kind {
	case KindEmpty:
	case KindText:
		r.conv.SubmitText(ctx, c.Arg)
	case KindUpload:
		file, closeFn, status := openUpload(c.Arg)
		if status != "" {
			r.out.SetUploadStatus(status)
			return false
		}
		r.conv.SubmitFile(ctx, file)
		if err := closeFn(); err != nil {
			log.Debug().Err(err).Str("path", c.Arg).Msg("failed to close uploaded file")
		}
	case KindCopy:
		r.out.Lines(copyLastReply(r.conv.History(), r.copyFn))
	case KindHistory:
		for _, t := range r.conv.History() {
			r.out.RenderTurn(t)
		}
	case KindTokens:
		h := r.conv.History()
		r.out.Lines(fmt.Sprintf("~%d tokens in %d turns", r.counter.CountTurns(h), len(h)))
	case KindHelp:
		r.out.Lines(strings.Split(HelpText, "\n")...)
	case KindQuit:
		return true
	case KindUnknown:
		r.out.Lines("Unknown command " + c.Arg + " (try /help)")
	}
	return false
}
