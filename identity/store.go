package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

const (
	keyFileName  = "key.pem"
	certFileName = "cert.pem"
)

// Store keeps the identity material as two PEM files in a directory.
// Files are written 0600; the key never leaves the device.
type Store struct {
	dir string
}

// NewStore creates the backing directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("NewStore: could not create identity directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load returns the stored material, or ok=false when none exists yet.
func (s *Store) Load() (Material, bool, error) {
	keyPem, err := os.ReadFile(path.Join(s.dir, keyFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Material{}, false, nil
	}
	if err != nil {
		return Material{}, false, fmt.Errorf("Load: could not read private key: %w", err)
	}
	certPem, err := os.ReadFile(path.Join(s.dir, certFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Material{}, false, nil
	}
	if err != nil {
		return Material{}, false, fmt.Errorf("Load: could not read certificate: %w", err)
	}
	return Material{PrivateKeyPEM: keyPem, CertificatePEM: certPem}, true, nil
}

// Save replaces the stored material wholesale. Each file goes through a
// temp file and rename so a crash never leaves a half-written identity.
func (s *Store) Save(m Material) error {
	if err := writeFileAtomic(path.Join(s.dir, keyFileName), m.PrivateKeyPEM); err != nil {
		return fmt.Errorf("Save: could not write private key: %w", err)
	}
	if err := writeFileAtomic(path.Join(s.dir, certFileName), m.CertificatePEM); err != nil {
		return fmt.Errorf("Save: could not write certificate: %w", err)
	}
	return nil
}

func writeFileAtomic(p string, data []byte) error {
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
