package ui

import (
	"context"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-go-golems/csvassist/pkg/session"
)

type fakeConversation struct {
	mu      sync.Mutex
	started int
	texts   []string
	files   []string
	history []session.Turn
}

func (f *fakeConversation) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
}

func (f *fakeConversation) SubmitText(ctx context.Context, text string) (session.Turn, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return session.Turn{Role: session.RoleAssistant, Content: "ok"}, true
}

func (f *fakeConversation) SubmitFile(ctx context.Context, file *session.File) session.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file == nil {
		f.files = append(f.files, "")
	} else {
		content, _ := io.ReadAll(file.Content)
		f.files = append(f.files, file.Name+":"+string(content))
	}
	return session.Turn{Role: session.RoleAssistant, Content: "ok"}
}

func (f *fakeConversation) History() []session.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Turn(nil), f.history...)
}

func (f *fakeConversation) calls() (started int, texts, files []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, append([]string(nil), f.texts...), append([]string(nil), f.files...)
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func (f *fakeSender) sent() []tea.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tea.Msg(nil), f.msgs...)
}

type fakeClipboard struct {
	copied []string
	err    error
}

func (f *fakeClipboard) copy(text string) error {
	if f.err != nil {
		return f.err
	}
	f.copied = append(f.copied, text)
	return nil
}
