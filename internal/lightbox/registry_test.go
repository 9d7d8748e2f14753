package lightbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateGetDelete(t *testing.T) {
	r := NewRegistry(RegistryConfig{})

	s := r.Create(makeItems(3))
	require.NotEmpty(t, s.ID())
	assert.Len(t, s.ID(), 36)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, ok := got.Focus().(*FocusRecorder)
	assert.True(t, ok, "registry sessions record focus for remote clients")

	require.NoError(t, r.Delete(s.ID()))
	assert.ErrorIs(t, r.Delete(s.ID()), ErrSessionNotFound)

	_, err = r.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistryAppliesSessionDefaults(t *testing.T) {
	pre := &mockPreloader{}
	r := NewRegistry(RegistryConfig{SessionOptions: []Option{WithPreloader(pre)}})

	s := r.Create(makeItems(3))
	s.Open(0)
	assert.Len(t, pre.calls, 1)
}

func TestRegistrySweepsIdleSessions(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(RegistryConfig{IdleTTL: time.Minute, Now: clock.Now})

	idle := r.Create(makeItems(2))
	active := r.Create(makeItems(2))

	clock.Advance(45 * time.Second)
	active.Open(0)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, r.Sweep())

	_, err := r.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(active.ID())
	assert.NoError(t, err)
}

func TestRegistryStartStop(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(RegistryConfig{IdleTTL: time.Minute, SweepInterval: 5 * time.Millisecond, Now: clock.Now})

	r.Create(makeItems(1))
	clock.Advance(2 * time.Minute)

	r.Start()
	r.Start()
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()
}
