package runtime

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/go-go-golems/csvassist/pkg/render"
	"github.com/go-go-golems/csvassist/pkg/session"
	"github.com/go-go-golems/csvassist/pkg/ui"
)

// ChatBuilder constructs the chat session together with the front-end that
// renders it, for the CLI and for embedding.
type ChatBuilder struct {
	ctx            context.Context
	assistant      session.Assistant
	sessionOptions []session.Option
	programOptions []tea.ProgramOption
	modelOptions   []ui.ModelOption
	replOptions    []ui.REPLOption
}

// NewChatBuilder returns a new builder with defaults.
func NewChatBuilder() *ChatBuilder {
	return &ChatBuilder{
		ctx: context.Background(),
	}
}

func (b *ChatBuilder) WithContext(ctx context.Context) *ChatBuilder {
	if ctx != nil {
		b.ctx = ctx
	}
	return b
}

func (b *ChatBuilder) WithAssistant(a session.Assistant) *ChatBuilder {
	b.assistant = a
	return b
}

func (b *ChatBuilder) WithSessionOptions(opts ...session.Option) *ChatBuilder {
	b.sessionOptions = append(b.sessionOptions, opts...)
	return b
}

func (b *ChatBuilder) WithProgramOptions(opts ...tea.ProgramOption) *ChatBuilder {
	b.programOptions = append(b.programOptions, opts...)
	return b
}

func (b *ChatBuilder) WithModelOptions(opts ...ui.ModelOption) *ChatBuilder {
	b.modelOptions = append(b.modelOptions, opts...)
	return b
}

func (b *ChatBuilder) WithREPLOptions(opts ...ui.REPLOption) *ChatBuilder {
	b.replOptions = append(b.replOptions, opts...)
	return b
}

// ChatSession holds the session and the renderer that forwards it to the UI.
type ChatSession struct {
	Session  *session.Session
	Renderer *ui.ProgramRenderer

	// program is set by BuildProgram automatically, or via AttachProgram when embedding
	program *tea.Program
}

// AttachProgram makes p the receiver of all session output.
func (cs *ChatSession) AttachProgram(p *tea.Program) {
	cs.program = p
	cs.Renderer.AttachProgram(p)
}

// BuildProgram creates the session, the chat model and a ready-to-run Bubble
// Tea program already attached to the session.
func (b *ChatBuilder) BuildProgram() (*ChatSession, *tea.Program, error) {
	sess, model, err := b.BuildComponents()
	if err != nil {
		return nil, nil, err
	}

	program := tea.NewProgram(model, b.programOptions...)
	sess.AttachProgram(program)

	return sess, program, nil
}

// BuildComponents creates the session and model for embedding. The caller
// must call ChatSession.AttachProgram before the model is started.
func (b *ChatBuilder) BuildComponents() (*ChatSession, tea.Model, error) {
	if b.assistant == nil {
		return nil, nil, errors.New("assistant is required; use WithAssistant")
	}

	renderer := ui.NewProgramRenderer()
	s := session.New(b.assistant, renderer, b.sessionOptions...)
	model := ui.NewModel(b.ctx, s, b.modelOptions...)

	return &ChatSession{
		Session:  s,
		Renderer: renderer,
	}, model, nil
}

// BuildREPL creates a session that prints to out and reads lines from
// reader.
func (b *ChatBuilder) BuildREPL(reader ui.LineReader, out io.Writer) (*session.Session, *ui.REPL, error) {
	if b.assistant == nil {
		return nil, nil, errors.New("assistant is required; use WithAssistant")
	}
	if reader == nil {
		return nil, nil, errors.New("line reader is required")
	}

	renderer := render.NewWriterRenderer(out)
	s := session.New(b.assistant, renderer, b.sessionOptions...)
	return s, ui.NewREPL(s, renderer, reader, b.replOptions...), nil
}
