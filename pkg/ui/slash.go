package ui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"

	"github.com/go-go-golems/csvassist/pkg/csvfile"
	"github.com/go-go-golems/csvassist/pkg/session"
)

// Conversation is what the front-ends drive; *session.Session implements it.
type Conversation interface {
	Start()
	SubmitText(ctx context.Context, text string) (session.Turn, bool)
	SubmitFile(ctx context.Context, file *session.File) session.Turn
	History() []session.Turn
}

var _ Conversation = (*session.Session)(nil)

type CommandKind int

const (
	KindEmpty CommandKind = iota
	KindText
	KindUpload
	KindCopy
	KindHistory
	KindTokens
	KindHelp
	KindQuit
	KindUnknown
)

// Command is one parsed input line.
type Command struct {
	Kind CommandKind
	Arg  string
}

var slashCommands = map[string]CommandKind{
	"/upload":  KindUpload,
	"/copy":    KindCopy,
	"/history": KindHistory,
	"/tokens":  KindTokens,
	"/help":    KindHelp,
	"/quit":    KindQuit,
	"/exit":    KindQuit,
}

const HelpText = `/upload <file.csv>  upload a CSV file for analysis
/copy               copy the last assistant reply to the clipboard
/history            print the transcript again
/tokens             show the transcript token estimate
/quit               leave the session
Anything else is sent to the assistant.`

// ParseLine turns an input line into a Command. Lines starting with a known
// slash command are commands; everything else is text for the assistant.
func ParseLine(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: KindEmpty}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: KindText, Arg: line}
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	kind, ok := slashCommands[strings.ToLower(name)]
	if !ok {
		return Command{Kind: KindUnknown, Arg: name}
	}
	return Command{Kind: kind, Arg: strings.TrimSpace(arg)}
}

// openUpload resolves an /upload argument. A non-empty status means the
// file was rejected before reaching the session and status should be shown
// on the upload status line instead.
func openUpload(path string) (file *session.File, closeFn func() error, status string) {
	file, closeFn, err := csvfile.Open(path)
	switch {
	case err == nil:
		return file, closeFn, ""
	case errors.Is(err, csvfile.ErrNotCSV):
		return nil, closeFn, csvfile.NotCSVMessage
	default:
		return nil, closeFn, err.Error()
	}
}

// lastAssistantReply returns the content of the most recent assistant turn.
func lastAssistantReply(turns []session.Turn) (string, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == session.RoleAssistant {
			return turns[i].Content, true
		}
	}
	return "", false
}

// copyLastReply copies the last assistant reply with copyFn and returns a
// status line describing the outcome.
func copyLastReply(turns []session.Turn, copyFn func(string) error) string {
	reply, ok := lastAssistantReply(turns)
	if !ok {
		return "Nothing to copy yet."
	}
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	if err := copyFn(reply); err != nil {
		return "Copy failed: " + err.Error()
	}
	return "Copied last reply to clipboard."
}
