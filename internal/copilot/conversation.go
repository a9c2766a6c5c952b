// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package copilot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pdiddy/mission-copilot/pkg/types"
)

var (
	// ErrEmptyMessage is returned for a blank submission.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSubmissionPending is returned while an earlier submission is
	// still being answered.
	ErrSubmissionPending = errors.New("a submission is already pending")
)

// Answerer produces one reply per message.
type Answerer interface {
	Answer(ctx context.Context, input string) Result
}

// Conversation is an append-only message log that accepts one submission
// at a time.
type Conversation struct {
	answerer Answerer
	pending  atomic.Bool

	mu       sync.RWMutex
	messages []types.Message
}

// NewConversation starts a log holding the assistant welcome line.
func NewConversation(a Answerer) *Conversation {
	return &Conversation{
		answerer: a,
		messages: []types.Message{{Role: types.RoleAssistant, Content: WelcomeMessage}},
	}
}

// Submit appends the user message, answers it and appends the reply.
// Nothing is appended when an error is returned.
func (c *Conversation) Submit(ctx context.Context, content string) (Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Result{}, ErrEmptyMessage
	}
	if !c.pending.CompareAndSwap(false, true) {
		return Result{}, ErrSubmissionPending
	}
	defer c.pending.Store(false)

	c.append(types.Message{Role: types.RoleUser, Content: content})
	res := c.answerer.Answer(ctx, content)
	c.append(types.Message{Role: types.RoleAssistant, Content: res.Reply})
	return res, nil
}

// Pending reports whether a submission is being answered.
func (c *Conversation) Pending() bool {
	return c.pending.Load()
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []types.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) append(m types.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
}
