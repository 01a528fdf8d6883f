package session

import (
	"context"
	"io"
)

// Role tags the originator of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message unit of the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// File is a file handed to SubmitFile. It is only referenced for the
// duration of a single upload.
type File struct {
	Name    string
	Content io.Reader
}

// Assistant relays messages and files to the remote assistant.
type Assistant interface {
	// Chat sends message together with the history that preceded it and
	// returns the assistant reply.
	Chat(ctx context.Context, message string, history []Turn) (string, error)
	// Upload sends file and returns the insights produced for it.
	Upload(ctx context.Context, file *File) (string, error)
}

// Renderer makes turns and transient feedback visible.
//
// Implementations must not call back into the Session: RenderTurn is
// invoked while the session holds its history lock.
type Renderer interface {
	RenderTurn(turn Turn)
	// ShowTyping displays a typing indicator and returns the function that
	// removes it again.
	ShowTyping() (hide func())
	SetUploadStatus(status string)
	Focus()
}

const (
	DefaultGreeting = "I'm your business assistant. Upload financial data or ask about revenue, costs, and performance."

	ChatErrorMessage    = "Error processing request. Try again."
	MissingFileMessage  = "Select a file before uploading."
	UploadSuccessPrefix = "File uploaded. Insights:\n"
	UploadErrorMessage  = "Error uploading file."
	UploadSuccessStatus = "File uploaded!"
	UploadFailedStatus  = "Upload failed."
)
