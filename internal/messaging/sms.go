// Package messaging sends the outbound SMS confirmations.
package messaging

import (
	"context"
	"errors"
	"strings"
)

// SMS is a single outbound text message. From falls back to the
// sender's configured sender id or number when empty.
type SMS struct {
	To   string
	From string
	Body string
}

// SMSSender delivers one SMS.
type SMSSender interface {
	Send(ctx context.Context, msg SMS) error
}

func (m SMS) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(m.Body) == "" {
		return errors.New("messaging: body required")
	}
	return nil
}
