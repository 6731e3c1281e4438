// Package settings persists the control plane's runtime settings and the
// remembered remote target in a single-file bolt database.
package settings

import (
	"time"

	"github.com/boltdb/bolt"
	log "github.com/sirupsen/logrus"
)

var (
	bucketServer = []byte("server")
	bucketRemote = []byte("remote")
)

// Store wraps the bolt database holding all persisted control-plane state
// except the TLS identity, which lives in its own files.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file with 0600 permissions.
func Open(dbFileName string) (*Store, error) {
	db, err := bolt.Open(dbFileName, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketServer, bucketRemote} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnf("error closing settings db: %v", err)
	}
}
