package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/csvassist/pkg/session"
)

// TurnMsg carries a turn that was appended to the session history.
type TurnMsg struct {
	Turn session.Turn
}

// TypingMsg toggles one typing indicator. Each ShowTyping call gets its own ID
// so overlapping requests keep the indicator up until the last one is done.
type TypingMsg struct {
	ID      string
	Visible bool
}

type UploadStatusMsg struct {
	Status string
}

type FocusMsg struct{}

// Sender is the part of *tea.Program the renderer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramRenderer implements session.Renderer by forwarding everything to a
// Bubble Tea program as messages. The model never calls back into the
// session, so forwarding while the session holds its lock is safe.
type ProgramRenderer struct {
	mu     sync.RWMutex
	sender Sender
}

var _ session.Renderer = (*ProgramRenderer)(nil)

func NewProgramRenderer() *ProgramRenderer {
	return &ProgramRenderer{}
}

// AttachProgram sets the program that receives the messages. Messages sent
// before a program is attached are dropped.
func (r *ProgramRenderer) AttachProgram(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sender = s
}

func (r *ProgramRenderer) send(msg tea.Msg) {
	r.mu.RLock()
	s := r.sender
	r.mu.RUnlock()

	if s == nil {
		log.Warn().Type("msg", msg).Msg("no program attached, dropping UI message")
		return
	}
	s.Send(msg)
}

func (r *ProgramRenderer) RenderTurn(turn session.Turn) {
	r.send(TurnMsg{Turn: turn})
}

func (r *ProgramRenderer) ShowTyping() func() {
	id := uuid.NewString()
	r.send(TypingMsg{ID: id, Visible: true})

	var once sync.Once
	return func() {
		once.Do(func() {
			r.send(TypingMsg{ID: id, Visible: false})
		})
	}
}

func (r *ProgramRenderer) SetUploadStatus(status string) {
	r.send(UploadStatusMsg{Status: status})
}

func (r *ProgramRenderer) Focus() {
	r.send(FocusMsg{})
}
