package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socktun/socktun/identity"
)

func newTestServer(t *testing.T) *Server {
	store, err := identity.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewServer(&stubService{}, stubStats{}, identity.NewManager(store), nil)
}

func TestStartIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	cfg := Config{Port: 0}

	require.NoError(t, s.Start(cfg))
	t.Cleanup(func() { _ = s.Stop() })
	assert.True(t, s.Running())

	// second start in the same mode is a no-op
	require.NoError(t, s.Start(cfg))
	assert.True(t, s.Running())
}

func TestStopIsIdempotent(t *testing.T) {
	s := newTestServer(t)

	// stopping a server that never ran is a no-op
	require.NoError(t, s.Stop())
	assert.False(t, s.Running())

	require.NoError(t, s.Start(Config{Port: 0}))
	require.NoError(t, s.Stop())
	assert.False(t, s.Running())
	require.NoError(t, s.Stop())
}

func TestStartWithHTTPSGeneratesIdentity(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.Start(Config{Port: 0, HTTPSEnabled: true}))
	t.Cleanup(func() { _ = s.Stop() })

	fingerprint, err := s.identity.Fingerprint()
	require.NoError(t, err)
	assert.NotEmpty(t, fingerprint)
}
