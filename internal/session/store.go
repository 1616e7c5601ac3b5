// Package session keeps each client's conversation transcript in memory.
package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Role of a turn, using the wire values the model APIs expect.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type transcript struct {
	mu    sync.Mutex
	turns []Turn
}

// Options bound the store. Zero values disable the bound: MaxClients 0 keeps
// every client, TTL 0 never expires an idle transcript.
type Options struct {
	MaxClients int
	TTL        time.Duration
}

// Store maps client ids to transcripts. Appends to one transcript are
// serialized; different clients only share the short map lookup.
type Store struct {
	mu          sync.Mutex
	transcripts *expirable.LRU[string, *transcript]
}

func NewStore(opts Options) *Store {
	size := opts.MaxClients
	if size < 0 {
		size = 0
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Store{transcripts: expirable.NewLRU[string, *transcript](size, nil, ttl)}
}

// lookup finds a transcript. Without touch it is a plain read. With touch
// it re-adds an existing transcript, which restarts its TTL, and creates a
// missing one only when create is set.
func (s *Store) lookup(clientID string, touch, create bool) *transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts.Get(clientID)
	if !touch {
		return t
	}
	if !ok {
		if !create {
			return nil
		}
		t = &transcript{}
	}
	s.transcripts.Add(clientID, t)
	return t
}

// Append adds a turn and returns a copy of the transcript that includes it.
// Only a user turn starts a transcript: an assistant turn for an unknown or
// evicted client is dropped and Append returns nil.
func (s *Store) Append(clientID string, role Role, content string) []Turn {
	t := s.lookup(clientID, true, role == RoleUser)
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, Turn{Role: role, Content: content})
	return copyTurns(t.turns)
}

// Get returns a copy of the transcript; nil for an unknown client.
func (s *Store) Get(clientID string) []Turn {
	t := s.lookup(clientID, false, false)
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyTurns(t.turns)
}

func copyTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Evict drops a client's transcript. It reports whether one existed.
func (s *Store) Evict(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcripts.Remove(clientID)
}

// Len is the number of live transcripts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcripts.Len()
}
