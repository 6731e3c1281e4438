// Package identity generates and stores the self-signed TLS identity used
// by the control API when HTTPS is enabled. Certificates and PKCS8 keys
// are assembled byte by byte from DER builders, without a CA toolchain.
package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const rsaKeyBits = 2048

// Manager owns the device's TLS identity. At most one Material is active;
// Ensure creates it lazily, Regenerate replaces it wholesale.
type Manager struct {
	mu    sync.Mutex
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// Ensure returns the stored material, generating and persisting a fresh
// identity only when none exists. Calling it again returns byte-identical
// material.
func (m *Manager) Ensure(commonName string, validityDays int) (Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok, err := m.store.Load()
	if err != nil {
		return Material{}, fmt.Errorf("Ensure: failed to load identity: %w", err)
	}
	if ok {
		return existing, nil
	}
	return m.generate(commonName, validityDays)
}

// Regenerate discards any stored identity and mints a new one. The
// fingerprint always changes.
func (m *Manager) Regenerate(commonName string, validityDays int) (Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generate(commonName, validityDays)
}

// Fingerprint is the colon-hex SHA-256 of the active certificate.
func (m *Manager) Fingerprint() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	material, ok, err := m.store.Load()
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to load identity: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("Fingerprint: no identity material exists yet")
	}
	return material.Fingerprint()
}

func (m *Manager) generate(commonName string, validityDays int) (Material, error) {
	start := time.Now()
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return Material{}, fmt.Errorf("generate: RSA key generation failed: %w", err)
	}

	certDER, err := buildCertificate(key, commonName, time.Duration(validityDays)*24*time.Hour, localSANs())
	if err != nil {
		return Material{}, fmt.Errorf("generate: certificate assembly failed: %w", err)
	}

	material := Material{
		PrivateKeyPEM:  keyToPEM(encodePKCS8(key)),
		CertificatePEM: certToPEM(certDER),
	}
	if err := m.store.Save(material); err != nil {
		return Material{}, fmt.Errorf("generate: failed to persist identity: %w", err)
	}

	fingerprint, err := material.Fingerprint()
	if err != nil {
		return Material{}, err
	}
	log.WithField("cn", commonName).
		WithField("fingerprint", fingerprint).
		WithField("took", time.Since(start)).
		Info("generated TLS identity")
	return material, nil
}
