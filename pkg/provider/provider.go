// Package provider abstracts the upstream model that turns prompts into
// feedback text. The broker depends only on Generator, so tests and
// alternative backends plug in without touching broker code.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Generator produces a feedback message from a fully built prompt.
// Implementations must honor ctx cancellation and apply their own
// request timeout.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse reports that the upstream answered without any usable
// text content.
var ErrEmptyResponse = errors.New("model returned no content")

// Error carries the upstream's own error code when one was surfaced, so
// logs can distinguish throttling from auth failures from outages.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("upstream error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
