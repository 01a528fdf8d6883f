package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/csvassist/pkg/session"
	"github.com/go-go-golems/csvassist/pkg/tokens"
)

const (
	defaultWidth      = 100
	defaultHeight     = 30
	inputCharLimit    = 4000
	reservedLines     = 5 // header, blank, blank, input, status
	minContentHeight  = 5
	minWrapWidth      = 20
	defaultMarkdown   = "dark"
	typingPlaceholder = "assistant is typing..."
)

type submitDoneMsg struct{}

// Model is the full-screen chat UI. It only learns about the conversation
// through the messages sent by ProgramRenderer; user input is handed to the
// Conversation from commands running outside the update loop.
type Model struct {
	ctx  context.Context
	conv Conversation

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	// turns and rendered are parallel: rendered[i] is the display form of turns[i]
	turns    []session.Turn
	rendered []string
	typing   map[string]struct{}
	status   string

	counter    *tokens.Counter
	tokenCount int

	markdownStyle string
	markdown      *glamour.TermRenderer
	copyFn        func(string) error
	server        string

	width  int
	height int
}

type ModelOption func(*Model)

// WithMarkdownStyle selects the glamour style for assistant turns. An empty
// style renders them as plain wrapped text.
func WithMarkdownStyle(style string) ModelOption {
	return func(m *Model) {
		m.markdownStyle = style
	}
}

func WithTokenCounter(c *tokens.Counter) ModelOption {
	return func(m *Model) {
		m.counter = c
	}
}

func WithClipboard(copyFn func(string) error) ModelOption {
	return func(m *Model) {
		m.copyFn = copyFn
	}
}

func WithServerLabel(server string) ModelOption {
	return func(m *Model) {
		m.server = server
	}
}

func NewModel(ctx context.Context, conv Conversation, options ...ModelOption) Model {
	input := textinput.New()
	input.Placeholder = "Ask about revenue, costs, performance... (/help)"
	input.CharLimit = inputCharLimit
	input.Width = defaultWidth - 3
	input.Prompt = ""

	m := Model{
		ctx:           ctx,
		conv:          conv,
		input:         input,
		viewport:      viewport.New(defaultWidth, defaultHeight-reservedLines),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		typing:        map[string]struct{}{},
		markdownStyle: defaultMarkdown,
		width:         defaultWidth,
		height:        defaultHeight,
	}
	for _, opt := range options {
		opt(&m)
	}
	if m.counter == nil {
		m.counter = &tokens.Counter{}
	}
	m.markdown = m.newMarkdownRenderer()
	return m
}

func (m Model) Init() tea.Cmd {
	conv := m.conv
	return tea.Batch(textinput.Blink, func() tea.Msg {
		conv.Start()
		return nil
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case TurnMsg:
		m.turns = append(m.turns, msg.Turn)
		m.rendered = append(m.rendered, m.renderTurn(msg.Turn))
		m.tokenCount += m.counter.Count(msg.Turn.Content)
		m.refreshContent()
		return m, nil

	case TypingMsg:
		wasIdle := len(m.typing) == 0
		if msg.Visible {
			m.typing[msg.ID] = struct{}{}
		} else {
			delete(m.typing, msg.ID)
		}
		m.refreshContent()
		if wasIdle && len(m.typing) > 0 {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if len(m.typing) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshContent()
		return m, cmd

	case UploadStatusMsg:
		m.status = msg.Status
		return m, nil

	case FocusMsg:
		return m, m.input.Focus()

	case submitDoneMsg:
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit, true
	case "enter":
		line := m.input.Value()
		m.input.Reset()
		return m.handleLine(line), true
	case "ctrl+y":
		m.status = copyLastReply(m.turns, m.copyFn)
		return nil, true
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (m *Model) handleLine(line string) tea.Cmd {
	c := ParseLine(line)
	switch c.Kind {
	case KindEmpty:
		return nil
	case KindText:
		return m.submitText(c.Arg)
	case KindUpload:
		file, closeFn, status := openUpload(c.Arg)
		if status != "" {
			m.status = status
			return nil
		}
		return m.submitFile(file, closeFn)
	case KindCopy:
		m.status = copyLastReply(m.turns, m.copyFn)
	case KindTokens:
		m.status = fmt.Sprintf("~%d tokens in %d turns", m.tokenCount, len(m.turns))
	case KindHistory:
		m.viewport.GotoTop()
	case KindHelp:
		m.status = strings.ReplaceAll(HelpText, "\n", " · ")
	case KindQuit:
		return tea.Quit
	case KindUnknown:
		m.status = "Unknown command " + c.Arg + " (try /help)"
	}
	return nil
}

func (m Model) submitText(text string) tea.Cmd {
	ctx, conv := m.ctx, m.conv
	return func() tea.Msg {
		conv.SubmitText(ctx, text)
		return submitDoneMsg{}
	}
}

func (m Model) submitFile(file *session.File, closeFn func() error) tea.Cmd {
	ctx, conv := m.ctx, m.conv
	return func() tea.Msg {
		conv.SubmitFile(ctx, file)
		if err := closeFn(); err != nil {
			log.Debug().Err(err).Msg("failed to close uploaded file")
		}
		return submitDoneMsg{}
	}
}

// resize lays the transcript out again for the new size. It re-renders the
// turns already received and never touches the conversation itself.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	contentHeight := height - reservedLines
	if contentHeight < minContentHeight {
		contentHeight = minContentHeight
	}
	m.viewport.Width = width
	m.viewport.Height = contentHeight
	m.input.Width = width - 3

	m.markdown = m.newMarkdownRenderer()
	for i, t := range m.turns {
		m.rendered[i] = m.renderTurn(t)
	}
	m.refreshContent()
}

func (m *Model) newMarkdownRenderer() *glamour.TermRenderer {
	if m.markdownStyle == "" {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.markdownStyle),
		glamour.WithWordWrap(m.wrapWidth()),
	)
	if err != nil {
		log.Warn().Err(err).Str("style", m.markdownStyle).Msg("could not create markdown renderer")
		return nil
	}
	return r
}

func (m *Model) wrapWidth() int {
	if m.width-4 < minWrapWidth {
		return minWrapWidth
	}
	return m.width - 4
}

func (m *Model) renderTurn(t session.Turn) string {
	if t.Role == session.RoleUser {
		return userLabelStyle.Render("You") + "\n" + bodyStyle.Width(m.wrapWidth()).Render(t.Content)
	}

	body := ""
	if m.markdown != nil {
		out, err := m.markdown.Render(t.Content)
		if err == nil {
			body = strings.Trim(out, "\n")
		} else {
			log.Debug().Err(err).Msg("markdown render failed")
		}
	}
	if body == "" {
		body = bodyStyle.Width(m.wrapWidth()).Render(t.Content)
	}
	return assistantLabelStyle.Render("Assistant") + "\n" + body
}

func (m *Model) refreshContent() {
	var b strings.Builder
	for _, r := range m.rendered {
		b.WriteString(r)
		b.WriteString("\n\n")
	}
	if len(m.typing) > 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(typingPlaceholder))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	header := titleStyle.Render("csvassist")
	if m.server != "" {
		header += dimStyle.Render(" · " + m.server)
	}

	footer := fmt.Sprintf("%d turns · ~%d tokens · Enter send · /upload <file> · ctrl+y copy · esc quit", len(m.turns), m.tokenCount)
	if m.status != "" {
		footer = statusStyle.Render(m.status) + dimStyle.Render(" · ") + dimStyle.Render(footer)
	} else {
		footer = dimStyle.Render(footer)
	}

	return strings.Join([]string{
		header,
		m.viewport.View(),
		"",
		promptStyle.Render("> ") + m.input.View(),
		footer,
	}, "\n")
}

// Turns returns the turns the model has displayed so far.
func (m Model) Turns() []session.Turn {
	return append([]session.Turn(nil), m.turns...)
}

// Typing reports whether a typing indicator is currently visible.
func (m Model) Typing() bool {
	return len(m.typing) > 0
}

func (m Model) Status() string {
	return m.status
}
