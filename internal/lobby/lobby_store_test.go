package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(Options{Scheduler: &fakeScheduler{}})

	open := s.Create("")
	locked := s.Create("$argon2id$fake")
	assert.NotEqual(t, open.ID, locked.ID)
	assert.Empty(t, open.PasswordHash())
	assert.Equal(t, "$argon2id$fake", locked.PasswordHash())
	assert.Len(t, s.List(), 2)

	got, ok := s.Get(open.ID)
	require.True(t, ok)
	assert.Same(t, open, got)

	open.Close()
	_, ok = s.Get(open.ID)
	assert.False(t, ok, "destroyed lobbies leave the registry")

	s.CloseAll()
	assert.Empty(t, s.List())
	assert.True(t, locked.Destroyed())
}
