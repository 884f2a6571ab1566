package thread

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"webmemory/internal/domain"
)

func TestStoreAppendAndMessages(t *testing.T) {
	s := NewStore()
	s.Append("t1", domain.Message{Role: domain.RoleUser, Content: "hello"})
	s.Append("t1", domain.Message{Role: domain.RoleAssistant, Content: "hi"})

	msgs := s.Messages("t1")
	require.Len(t, msgs, 2)
	require.Equal(t, "hello", msgs[0].Content)
	require.Equal(t, "hi", msgs[1].Content)
}

func TestStoreThreadsAreIndependent(t *testing.T) {
	s := NewStore()
	s.Append("a", domain.Message{Role: domain.RoleUser, Content: "x"})
	require.Empty(t, s.Messages("b"))
	require.Equal(t, 0, s.Len("b"))
}

func TestStoreMessagesReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append("t1", domain.Message{Role: domain.RoleUser, Content: "original"})
	msgs := s.Messages("t1")
	msgs[0].Content = "mutated"
	require.Equal(t, "original", s.Messages("t1")[0].Content)
}

func TestStoreConcurrentAppends(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("t%d", n)
			for j := 0; j < 100; j++ {
				s.Append(id, domain.Message{Role: domain.RoleUser, Content: "m"})
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < 8; i++ {
		require.Equal(t, 100, s.Len(fmt.Sprintf("t%d", i)))
	}
}
