package settings

import (
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
)

var keyRemoteTarget = []byte("target")

// RemoteConnectionRecord remembers the last successfully connected proxy
// target, so auto-start can redial it after a restart. It is set only on a
// successful connect and cleared on any disconnect outcome.
type RemoteConnectionRecord struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// RememberedTarget returns the stored record, ok=false when none exists.
func (s *Store) RememberedTarget() (RemoteConnectionRecord, bool, error) {
	var record RemoteConnectionRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketRemote).Get(keyRemoteTarget)
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &record)
	})
	if err != nil {
		return RemoteConnectionRecord{}, false, fmt.Errorf("RememberedTarget: failed to load record: %w", err)
	}
	return record, found, nil
}

func (s *Store) RememberTarget(host string, port int) error {
	raw, err := json.Marshal(RemoteConnectionRecord{Host: host, Port: port})
	if err != nil {
		return fmt.Errorf("RememberTarget: failed to encode record: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRemote).Put(keyRemoteTarget, raw)
	})
	if err != nil {
		return fmt.Errorf("RememberTarget: failed to persist record: %w", err)
	}
	return nil
}

func (s *Store) ClearTarget() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRemote).Delete(keyRemoteTarget)
	})
	if err != nil {
		return fmt.Errorf("ClearTarget: failed to delete record: %w", err)
	}
	return nil
}
