package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 5 * time.Millisecond
)

type chatCall struct {
	Message string
	History []Turn
}

type fakeAssistant struct {
	mu        sync.Mutex
	chatCalls []chatCall
	uploads   []string

	chatReply   string
	chatErr     error
	uploadReply string
	uploadErr   error

	// when set, calls block until the channel yields
	chatGate   chan struct{}
	uploadGate chan struct{}
}

func (f *fakeAssistant) Chat(ctx context.Context, message string, history []Turn) (string, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, chatCall{Message: message, History: history})
	gate := f.chatGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatReply, nil
}

func (f *fakeAssistant) Upload(ctx context.Context, file *File) (string, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, file.Name)
	gate := f.uploadGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.uploadReply, nil
}

type recordingRenderer struct {
	mu       sync.Mutex
	turns    []Turn
	events   []string
	typing   int
	status   string
	focused  bool
	hideSeen int
}

func (r *recordingRenderer) RenderTurn(turn Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turn)
	r.events = append(r.events, "turn:"+string(turn.Role))
}

func (r *recordingRenderer) ShowTyping() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing++
	r.events = append(r.events, "typing:on")
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.typing--
		r.hideSeen++
		r.events = append(r.events, "typing:off")
	}
}

func (r *recordingRenderer) SetUploadStatus(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *recordingRenderer) Focus() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focused = true
}

func newTestSession(a *fakeAssistant) (*Session, *recordingRenderer) {
	r := &recordingRenderer{}
	s := New(a, r)
	s.Start()
	return s, r
}

func TestStartAppendsGreetingAndFocuses(t *testing.T) {
	a := &fakeAssistant{}
	s, r := newTestSession(a)

	history := s.History()
	require.Len(t, history, 1)
	require.Equal(t, Turn{Role: RoleAssistant, Content: DefaultGreeting}, history[0])
	require.True(t, r.focused)
	require.Equal(t, history, r.turns)
	require.NotEmpty(t, s.ID())
}

func TestStartWithCustomGreeting(t *testing.T) {
	s := New(&fakeAssistant{}, &recordingRenderer{}, WithGreeting("hello there"))
	s.Start()
	require.Equal(t, "hello there", s.History()[0].Content)

	s = New(&fakeAssistant{}, &recordingRenderer{}, WithGreeting("   "))
	s.Start()
	require.Equal(t, DefaultGreeting, s.History()[0].Content)
}

func TestSubmitTextSuccess(t *testing.T) {
	a := &fakeAssistant{chatReply: "Revenue grew 12%."}
	s, r := newTestSession(a)

	reply, ok := s.SubmitText(context.Background(), "  how is revenue?  ")
	require.True(t, ok)
	require.Equal(t, Turn{Role: RoleAssistant, Content: "Revenue grew 12%."}, reply)

	history := s.History()
	require.Len(t, history, 3)
	require.Equal(t, Turn{Role: RoleUser, Content: "how is revenue?"}, history[1])
	require.Equal(t, reply, history[2])

	require.Equal(t, history, r.turns)
	require.Equal(t, 0, r.typing)
	require.Equal(t, []string{
		"turn:assistant",
		"turn:user",
		"typing:on",
		"typing:off",
		"turn:assistant",
	}, r.events)
}

func TestSubmitTextSendsHistoryBeforeUserTurn(t *testing.T) {
	a := &fakeAssistant{chatReply: "ok"}
	s, _ := newTestSession(a)

	s.SubmitText(context.Background(), "first")
	s.SubmitText(context.Background(), "second")

	require.Len(t, a.chatCalls, 2)

	first := a.chatCalls[0]
	require.Equal(t, "first", first.Message)
	require.Equal(t, []Turn{{Role: RoleAssistant, Content: DefaultGreeting}}, first.History)

	second := a.chatCalls[1]
	require.Equal(t, "second", second.Message)
	require.Equal(t, []Turn{
		{Role: RoleAssistant, Content: DefaultGreeting},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "ok"},
	}, second.History)
	for _, turn := range second.History {
		require.NotEqual(t, "second", turn.Content)
	}
}

func TestSubmitTextFailureIsAbsorbed(t *testing.T) {
	a := &fakeAssistant{chatErr: errors.New("connection refused")}
	s, r := newTestSession(a)

	reply, ok := s.SubmitText(context.Background(), "hello")
	require.True(t, ok)
	require.Equal(t, ChatErrorMessage, reply.Content)
	require.Equal(t, RoleAssistant, reply.Role)

	history := s.History()
	require.Len(t, history, 3)
	require.Equal(t, RoleUser, history[1].Role)
	require.Equal(t, ChatErrorMessage, history[2].Content)
	require.Equal(t, 0, r.typing)
	require.Equal(t, 1, r.hideSeen)
}

func TestSubmitTextIgnoresBlankInput(t *testing.T) {
	for _, input := range []string{"", " ", "\t\n", "   \r\n  "} {
		a := &fakeAssistant{}
		s, r := newTestSession(a)

		_, ok := s.SubmitText(context.Background(), input)
		require.False(t, ok)
		require.Len(t, s.History(), 1)
		require.Empty(t, a.chatCalls)
		require.Len(t, r.turns, 1)
		require.Equal(t, 0, r.hideSeen)
	}
}

func TestSubmitFileMissing(t *testing.T) {
	a := &fakeAssistant{}
	s, r := newTestSession(a)

	notice := s.SubmitFile(context.Background(), nil)
	require.Equal(t, Turn{Role: RoleAssistant, Content: MissingFileMessage}, notice)
	require.Empty(t, a.uploads)
	require.Len(t, r.turns, 2)
	require.Equal(t, notice, r.turns[1])
	require.Empty(t, r.status)
	require.Equal(t, 0, r.hideSeen)
}

func TestSubmitFileSuccess(t *testing.T) {
	a := &fakeAssistant{uploadReply: "3 rows, 2 columns"}
	s, r := newTestSession(a)

	reply := s.SubmitFile(context.Background(), &File{Name: "sales.csv", Content: strings.NewReader("a,b\n1,2\n")})
	require.Equal(t, "File uploaded. Insights:\n3 rows, 2 columns", reply.Content)
	require.Equal(t, RoleAssistant, reply.Role)
	require.Equal(t, UploadSuccessStatus, r.status)
	require.Equal(t, []string{"sales.csv"}, a.uploads)
	require.Equal(t, 0, r.typing)

	history := s.History()
	require.Len(t, history, 2)
	require.Equal(t, reply, history[1])
}

func TestSubmitFileFailure(t *testing.T) {
	a := &fakeAssistant{uploadErr: errors.New("network down")}
	s, r := newTestSession(a)

	reply := s.SubmitFile(context.Background(), &File{Name: "sales.csv", Content: strings.NewReader("")})
	require.Equal(t, UploadErrorMessage, reply.Content)
	require.Equal(t, UploadFailedStatus, r.status)
	require.Equal(t, 0, r.typing)
	require.Equal(t, 1, r.hideSeen)
	require.Len(t, s.History(), 2)
}

func TestOverlappingSubmissionsRecordArrivalOrder(t *testing.T) {
	a := &fakeAssistant{
		chatReply:   "chat answer",
		uploadReply: "upload answer",
		chatGate:    make(chan struct{}),
		uploadGate:  make(chan struct{}),
	}
	s, r := newTestSession(a)

	g, ctx := errgroup.WithContext(context.Background())
	chatDone := make(chan struct{})
	g.Go(func() error {
		defer close(chatDone)
		s.SubmitText(ctx, "question")
		return nil
	})
	g.Go(func() error {
		s.SubmitFile(ctx, &File{Name: "data.csv", Content: strings.NewReader("x\n1\n")})
		return nil
	})

	// the chat request was started first, but the upload resolves first
	require.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return len(a.chatCalls) == 1 && len(a.uploads) == 1
	}, testTimeout, testTick)
	a.uploadGate <- struct{}{}
	require.Eventually(t, func() bool {
		return len(s.History()) == 3
	}, testTimeout, testTick)
	a.chatGate <- struct{}{}
	<-chatDone
	require.NoError(t, g.Wait())

	history := s.History()
	require.Len(t, history, 4)
	require.Equal(t, RoleUser, history[1].Role)
	require.Equal(t, UploadSuccessPrefix+"upload answer", history[2].Content)
	require.Equal(t, "chat answer", history[3].Content)

	require.Equal(t, history, r.turns)
	require.Equal(t, 0, r.typing)
	require.Equal(t, 2, r.hideSeen)
}

func TestHistoryIsACopy(t *testing.T) {
	s, _ := newTestSession(&fakeAssistant{chatReply: "x"})
	h := s.History()
	h[0].Content = "mutated"
	require.Equal(t, DefaultGreeting, s.History()[0].Content)
}
