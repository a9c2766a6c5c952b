// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/mission-copilot/internal/copilot"
)

// sessionStore keeps conversations in memory. A conversation untouched for
// idle is dropped; when maxSize is reached the least recently used one is
// dropped to make room. Zero disables either limit.
type sessionStore struct {
	mu      sync.Mutex
	convs   map[string]*session
	idle    time.Duration
	maxSize int
	newID   func() string
	now     func() time.Time
}

type session struct {
	conv     *copilot.Conversation
	lastUsed time.Time
}

func newSessionStore(idle time.Duration, maxSize int) *sessionStore {
	return &sessionStore{
		convs:   make(map[string]*session),
		idle:    idle,
		maxSize: maxSize,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (s *sessionStore) create(a copilot.Answerer) (string, *copilot.Conversation) {
	conv := copilot.NewConversation(a)
	id := s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expireLocked(now)
	if s.maxSize > 0 && len(s.convs) >= s.maxSize {
		s.evictOldestLocked()
	}
	s.convs[id] = &session{conv: conv, lastUsed: now}
	return id, conv
}

func (s *sessionStore) get(id string) (*copilot.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.convs[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.convs, id)
		return nil, false
	}
	sess.lastUsed = now
	return sess.conv, true
}

func (s *sessionStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func (s *sessionStore) expired(sess *session, now time.Time) bool {
	return s.idle > 0 && now.Sub(sess.lastUsed) > s.idle
}

func (s *sessionStore) expireLocked(now time.Time) {
	for id, sess := range s.convs {
		if s.expired(sess, now) {
			delete(s.convs, id)
		}
	}
}

func (s *sessionStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sess := range s.convs {
		if oldestID == "" || sess.lastUsed.Before(oldest) {
			oldestID = id
			oldest = sess.lastUsed
		}
	}
	delete(s.convs, oldestID)
}
