package client

import (
	"fmt"

	"github.com/go-go-golems/csvassist/pkg/session"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string         `json:"message"`
	History []session.Turn `json:"history"`
}

// Reply is the body returned by both endpoints.
type Reply struct {
	Response *string `json:"response"`
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}
