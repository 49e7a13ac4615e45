// Package mailertest provides a mailer.Sender that keeps messages in memory.
package mailertest

import (
	"context"
	"sync"

	"github.com/vedran77/accounts/internal/mailer"
)

type Recorder struct {
	mu       sync.Mutex
	messages []*mailer.Message

	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

func (r *Recorder) Send(_ context.Context, msg *mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) Messages() []*mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*mailer.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *Recorder) Last() *mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.messages) == 0 {
		return nil
	}
	return r.messages[len(r.messages)-1]
}
