package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session owns the transcript of one conversation and relays user input to
// the Assistant. A Session is created once per interactive run.
type Session struct {
	id        string
	assistant Assistant
	renderer  Renderer
	greeting  string
	logger    zerolog.Logger

	mu      sync.Mutex
	history []Turn
}

type Option func(*Session)

// WithGreeting replaces the assistant greeting shown by Start.
func WithGreeting(greeting string) Option {
	return func(s *Session) {
		if strings.TrimSpace(greeting) != "" {
			s.greeting = greeting
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func New(assistant Assistant, renderer Renderer, options ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		assistant: assistant,
		renderer:  renderer,
		greeting:  DefaultGreeting,
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("session_id", s.id).Logger()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Start appends the greeting and focuses the text entry surface.
func (s *Session) Start() {
	s.appendTurn(Turn{Role: RoleAssistant, Content: s.greeting})
	s.renderer.Focus()
}

// History returns a copy of the transcript.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}

// SubmitText sends text to the assistant and records the reply. Blank input
// is ignored and reported with ok == false. Failures are converted into a
// fixed assistant turn; the returned turn is whatever was appended last.
func (s *Session) SubmitText(ctx context.Context, text string) (reply Turn, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, false
	}

	before := s.appendTurn(Turn{Role: RoleUser, Content: text})

	response, err := s.withTyping(func() (string, error) {
		return s.assistant.Chat(ctx, text, before)
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("chat request failed")
		reply = Turn{Role: RoleAssistant, Content: ChatErrorMessage}
	} else {
		reply = Turn{Role: RoleAssistant, Content: response}
	}
	s.appendTurn(reply)

	return reply, true
}

// SubmitFile uploads file and records the insights. A nil file only renders
// a notice. Upload outcome is mirrored on the renderer's status line.
func (s *Session) SubmitFile(ctx context.Context, file *File) Turn {
	if file == nil {
		notice := Turn{Role: RoleAssistant, Content: MissingFileMessage}
		s.appendTurn(notice)
		return notice
	}

	response, err := s.withTyping(func() (string, error) {
		return s.assistant.Upload(ctx, file)
	})

	var reply Turn
	var status string
	if err != nil {
		s.logger.Warn().Err(err).Str("file", file.Name).Msg("upload failed")
		reply = Turn{Role: RoleAssistant, Content: UploadErrorMessage}
		status = UploadFailedStatus
	} else {
		s.logger.Debug().Str("file", file.Name).Msg("upload succeeded")
		reply = Turn{Role: RoleAssistant, Content: UploadSuccessPrefix + response}
		status = UploadSuccessStatus
	}
	s.appendTurn(reply)
	s.renderer.SetUploadStatus(status)

	return reply
}

// withTyping keeps the typing indicator visible exactly for the duration of
// call, whatever way call returns.
func (s *Session) withTyping(call func() (string, error)) (string, error) {
	hide := s.renderer.ShowTyping()
	defer hide()
	return call()
}

// appendTurn renders and records turn atomically and returns the history as
// it was before the append.
func (s *Session) appendTurn(turn Turn) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := append([]Turn(nil), s.history...)
	s.history = append(s.history, turn)
	s.renderer.RenderTurn(turn)
	return before
}
