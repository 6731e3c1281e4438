package settings

import (
	"path"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	store, err := Open(path.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestDefaultsOnFirstRun(t *testing.T) {
	store := newTestStore(t)
	settings, err := store.Server()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, settings.Port)
	assert.False(t, settings.AutoStart)
	assert.False(t, settings.HTTPSEnabled)
	assert.False(t, settings.AuthEnabled)
	assert.Empty(t, settings.Token)
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := ServerRuntimeSettings{AutoStart: true, Port: 8443, HTTPSEnabled: true}
	require.NoError(t, store.SaveServer(want))

	got, err := store.Server()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAuthWithoutHTTPSIsRejected(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SetAuthEnabled(true)
	assert.Error(t, err)

	// direct save attempts are rejected as well
	err = store.SaveServer(ServerRuntimeSettings{Port: 1234, AuthEnabled: true, Token: "00112233445566778899aabbccddeeff"})
	assert.Error(t, err)
}

func TestEnablingAuthMintsToken(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SetHTTPSEnabled(true)
	require.NoError(t, err)

	settings, err := store.SetAuthEnabled(true)
	require.NoError(t, err)
	assert.True(t, settings.AuthEnabled)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), settings.Token)

	// token is stable across toggles
	_, err = store.SetAuthEnabled(false)
	require.NoError(t, err)
	again, err := store.SetAuthEnabled(true)
	require.NoError(t, err)
	assert.Equal(t, settings.Token, again.Token)
}

func TestDisablingHTTPSForcesAuthOff(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SetHTTPSEnabled(true)
	require.NoError(t, err)
	_, err = store.SetAuthEnabled(true)
	require.NoError(t, err)

	settings, err := store.SetHTTPSEnabled(false)
	require.NoError(t, err)
	assert.False(t, settings.HTTPSEnabled)
	assert.False(t, settings.AuthEnabled)

	reloaded, err := store.Server()
	require.NoError(t, err)
	assert.False(t, reloaded.AuthEnabled)
}

func TestPortRangeValidation(t *testing.T) {
	store := newTestStore(t)
	for _, port := range []int{0, -1, 65536} {
		err := store.SaveServer(ServerRuntimeSettings{Port: port})
		assert.Error(t, err, "port %d", port)
	}
}

func TestRememberedTargetLifecycle(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.RememberedTarget()
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.RememberTarget("192.168.1.100", 9852))
	record, found, err := store.RememberedTarget()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, RemoteConnectionRecord{Host: "192.168.1.100", Port: 9852}, record)

	require.NoError(t, store.ClearTarget())
	_, found, err = store.RememberedTarget()
	require.NoError(t, err)
	assert.False(t, found)
}
