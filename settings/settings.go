package settings

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	log "github.com/sirupsen/logrus"
)

// DefaultPort is the control API's default listen port.
const DefaultPort = 18080

const tokenHexLength = 32

var keyServerSettings = []byte("settings")

// ServerRuntimeSettings is the persisted configuration of the control API
// server. Invariant: AuthEnabled implies HTTPSEnabled; a bearer token over
// plain HTTP would leak on the first request.
type ServerRuntimeSettings struct {
	AutoStart    bool   `json:"autoStart"`
	Port         int    `json:"port"`
	HTTPSEnabled bool   `json:"httpsEnabled"`
	AuthEnabled  bool   `json:"authEnabled"`
	Token        string `json:"token,omitempty"`
}

func defaultServerSettings() ServerRuntimeSettings {
	return ServerRuntimeSettings{Port: DefaultPort}
}

// Validate rejects settings that break the invariants.
func (s ServerRuntimeSettings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("Validate: port %d out of range", s.Port)
	}
	if s.AuthEnabled && !s.HTTPSEnabled {
		return fmt.Errorf("Validate: auth requires HTTPS to be enabled")
	}
	if s.AuthEnabled && len(s.Token) != tokenHexLength {
		return fmt.Errorf("Validate: auth is enabled but no token is set")
	}
	return nil
}

// Server loads the persisted settings, applying defaults on first run and
// re-checking the auth invariant for records written by older builds.
func (s *Store) Server() (ServerRuntimeSettings, error) {
	settings := defaultServerSettings()
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketServer).Get(keyServerSettings)
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &settings)
	})
	if err != nil {
		return ServerRuntimeSettings{}, fmt.Errorf("Server: failed to load settings: %w", err)
	}
	if settings.AuthEnabled && !settings.HTTPSEnabled {
		log.Warn("stored settings had auth enabled without HTTPS, disabling auth")
		settings.AuthEnabled = false
	}
	return settings, nil
}

// SaveServer validates and persists the settings wholesale.
func (s *Store) SaveServer(settings ServerRuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("SaveServer: failed to encode settings: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketServer).Put(keyServerSettings, raw)
	})
	if err != nil {
		return fmt.Errorf("SaveServer: failed to persist settings: %w", err)
	}
	return nil
}

// SetHTTPSEnabled flips HTTPS serving. Disabling HTTPS forces auth off,
// keeping the invariant without rejecting the request.
func (s *Store) SetHTTPSEnabled(enabled bool) (ServerRuntimeSettings, error) {
	settings, err := s.Server()
	if err != nil {
		return ServerRuntimeSettings{}, err
	}
	settings.HTTPSEnabled = enabled
	if !enabled && settings.AuthEnabled {
		log.Info("HTTPS disabled, forcing auth off")
		settings.AuthEnabled = false
	}
	if err := s.SaveServer(settings); err != nil {
		return ServerRuntimeSettings{}, err
	}
	return settings, nil
}

// SetAuthEnabled flips bearer-token auth. Enabling it without HTTPS is
// rejected; enabling it mints a token if none exists yet. The token
// survives disabling auth so re-enabling keeps existing clients working.
func (s *Store) SetAuthEnabled(enabled bool) (ServerRuntimeSettings, error) {
	settings, err := s.Server()
	if err != nil {
		return ServerRuntimeSettings{}, err
	}
	if enabled && !settings.HTTPSEnabled {
		return ServerRuntimeSettings{}, fmt.Errorf("SetAuthEnabled: auth requires HTTPS to be enabled first")
	}
	settings.AuthEnabled = enabled
	if enabled && len(settings.Token) != tokenHexLength {
		settings.Token, err = mintToken()
		if err != nil {
			return ServerRuntimeSettings{}, err
		}
	}
	if err := s.SaveServer(settings); err != nil {
		return ServerRuntimeSettings{}, err
	}
	return settings, nil
}

func mintToken() (string, error) {
	raw := make([]byte, tokenHexLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("mintToken: failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
