// Package snapshot is an optional, outside-the-core cache a joining node
// can consult to remember the group UUID and configuration generation it
// last observed across process restarts. The group state machine itself
// never reads or writes this cache; it exists purely for the demo CLI.
// Storage follows a bucket-per-concern layout, with db.Update/db.View
// closures around BoltDB.
package snapshot

import (
	"encoding/binary"
	"errors"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
)

var bucketName = []byte("last_known_group")

var (
	groupUUIDKey = []byte("group_uuid")
	confIDKey    = []byte("conf_id")
)

// Cache is a BoltDB-backed record of the last group a node observed.
type Cache struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a snapshot cache at path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Record stores the group UUID and configuration generation most recently
// observed by this node.
func (c *Cache) Record(groupUUID uuid.UUID, confID int64) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if err := b.Put(groupUUIDKey, groupUUID[:]); err != nil {
			return err
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(confID))
		return b.Put(confIDKey, buf)
	})
}

// Last returns the last recorded group UUID and configuration generation,
// or uuid.Nil / group.SeqILL-equivalent (-1) if nothing has been recorded.
func (c *Cache) Last() (groupUUID uuid.UUID, confID int64, err error) {
	confID = -1
	err = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return errors.New("snapshot: bucket missing")
		}
		if raw := b.Get(groupUUIDKey); raw != nil {
			copy(groupUUID[:], raw)
		}
		if raw := b.Get(confIDKey); raw != nil {
			confID = int64(binary.LittleEndian.Uint64(raw))
		}
		return nil
	})
	return
}

// Close releases the underlying BoltDB handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
