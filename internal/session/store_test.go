package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndGet(t *testing.T) {
	s := NewStore(Options{})
	assert.Nil(t, s.Get("10.0.0.1"))

	s.Append("10.0.0.1", RoleUser, "おう")
	s.Append("10.0.0.1", RoleAssistant, "まじか")
	s.Append("10.0.0.2", RoleUser, "hi")

	got := s.Get("10.0.0.1")
	require.Equal(t, []Turn{{RoleUser, "おう"}, {RoleAssistant, "まじか"}}, got)
	assert.Len(t, s.Get("10.0.0.2"), 1)
	assert.Equal(t, 2, s.Len())

	got[0].Content = "changed"
	assert.Equal(t, "おう", s.Get("10.0.0.1")[0].Content, "Get must return a copy")
}

func TestOrderedAppendsFromConcurrentRequests(t *testing.T) {
	s := NewStore(Options{})
	userDone := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Append("c", RoleUser, "question")
		close(userDone)
	}()
	go func() {
		defer wg.Done()
		<-userDone
		s.Append("c", RoleAssistant, "answer")
	}()
	wg.Wait()

	got := s.Get("c")
	require.Len(t, got, 2)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, RoleAssistant, got[1].Role)
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	s := NewStore(Options{})
	const clients, perClient = 8, 50
	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		for i := 0; i < perClient; i++ {
			wg.Add(1)
			go func(c, i int) {
				defer wg.Done()
				s.Append(fmt.Sprintf("client-%d", c), RoleUser, fmt.Sprint(i))
			}(c, i)
		}
	}
	wg.Wait()
	for c := 0; c < clients; c++ {
		assert.Len(t, s.Get(fmt.Sprintf("client-%d", c)), perClient)
	}
}

func TestEvict(t *testing.T) {
	s := NewStore(Options{})
	s.Append("a", RoleUser, "x")
	assert.True(t, s.Evict("a"))
	assert.False(t, s.Evict("a"))
	assert.Nil(t, s.Get("a"))
	assert.Equal(t, 0, s.Len())
}

func TestMaxClientsEvictsLeastRecent(t *testing.T) {
	s := NewStore(Options{MaxClients: 2})
	s.Append("a", RoleUser, "1")
	s.Append("b", RoleUser, "2")
	_ = s.Get("a")
	s.Append("c", RoleUser, "3")

	assert.Equal(t, 2, s.Len())
	assert.NotNil(t, s.Get("a"))
	assert.Nil(t, s.Get("b"))
	assert.NotNil(t, s.Get("c"))
}

func TestTTLExpiresIdleTranscripts(t *testing.T) {
	s := NewStore(Options{TTL: 30 * time.Millisecond})
	s.Append("a", RoleUser, "1")
	require.NotNil(t, s.Get("a"))
	time.Sleep(80 * time.Millisecond)
	assert.Nil(t, s.Get("a"))
}

func TestAppendReturnsTranscriptSnapshot(t *testing.T) {
	s := NewStore(Options{})
	got := s.Append("a", RoleUser, "1")
	assert.Equal(t, []Turn{{RoleUser, "1"}}, got)
	got = s.Append("a", RoleAssistant, "2")
	require.Equal(t, []Turn{{RoleUser, "1"}, {RoleAssistant, "2"}}, got)

	got[0].Content = "changed"
	assert.Equal(t, "1", s.Get("a")[0].Content)
}

func TestAssistantTurnDoesNotStartTranscript(t *testing.T) {
	s := NewStore(Options{MaxClients: 1})
	s.Append("a", RoleUser, "question")
	// another client pushes "a" out before its reply arrives
	s.Append("b", RoleUser, "hi")

	assert.Nil(t, s.Append("a", RoleAssistant, "answer"))
	assert.Nil(t, s.Get("a"))
	assert.Equal(t, 1, s.Len())
}
