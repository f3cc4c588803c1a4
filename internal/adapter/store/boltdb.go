package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"ragqa/internal/domain"
	"ragqa/internal/port"
)

var (
	bucketMeta     = []byte("meta")
	bucketSegments = []byte("segments")
	bucketVectors  = []byte("vectors")
	keySchema      = []byte("schema")
)

const defaultOpenTimeout = 2 * time.Second

// BoltStore persists index snapshots as a bbolt file. Every Save writes a
// fresh database next to the target and renames it into place, so readers
// see either the previous snapshot or the new one.
type BoltStore struct {
	path    string
	timeout time.Duration
}

type storedSegment struct {
	ID       string            `json:"id"`
	Content  string            `json:"c"`
	Raw      string            `json:"r"`
	Metadata map[string]string `json:"m,omitempty"`
}

func NewBoltStore(path string) *BoltStore {
	return &BoltStore{path: path, timeout: defaultOpenTimeout}
}

func (s *BoltStore) Save(snap port.IndexSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp-%d", s.path, os.Getpid())
	_ = os.Remove(tmp)

	if err := s.writeSnapshot(tmp, snap); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

func (s *BoltStore) writeSnapshot(path string, snap port.IndexSnapshot) error {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: s.timeout})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		segments, err := tx.CreateBucket(bucketSegments)
		if err != nil {
			return err
		}
		vectors, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}

		info := SchemaInfo{
			Version:   CurrentSchemaVersion,
			Dimension: snap.Dimension,
			Metric:    snap.Metric,
			Model:     snap.Model,
			Language:  snap.Language,
			Count:     len(snap.Segments),
		}
		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		if err := meta.Put(keySchema, data); err != nil {
			return err
		}

		for i, seg := range snap.Segments {
			if len(seg.Embedding) != snap.Dimension {
				return fmt.Errorf("segment %d has dimension %d, snapshot has %d", i, len(seg.Embedding), snap.Dimension)
			}

			key := positionKey(i)
			data, err := json.Marshal(storedSegment{
				ID:       seg.ID,
				Content:  seg.Content,
				Raw:      seg.RawContent,
				Metadata: seg.Metadata,
			})
			if err != nil {
				return err
			}
			if err := segments.Put(key, data); err != nil {
				return err
			}
			if err := vectors.Put(key, encodeVector(seg.Embedding)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return db.Close()
}

// Load reads the snapshot. A missing file is not an error.
func (s *BoltStore) Load() (port.IndexSnapshot, bool, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return port.IndexSnapshot{}, false, nil
		}
		return port.IndexSnapshot{}, false, err
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{ReadOnly: true, Timeout: s.timeout})
	if err != nil {
		return port.IndexSnapshot{}, false, fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	var snap port.IndexSnapshot
	err = db.View(func(tx *bbolt.Tx) error {
		info, err := readSchemaInfo(tx)
		if err != nil {
			return err
		}
		if err := info.check(); err != nil {
			return err
		}

		segments := tx.Bucket(bucketSegments)
		vectors := tx.Bucket(bucketVectors)
		if segments == nil || vectors == nil {
			return fmt.Errorf("snapshot is missing segment buckets")
		}

		snap = port.IndexSnapshot{
			Dimension: info.Dimension,
			Metric:    info.Metric,
			Model:     info.Model,
			Language:  info.Language,
			Segments:  make([]domain.Segment, 0, info.Count),
		}

		c := segments.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var stored storedSegment
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt segment %x: %w", k, err)
			}
			vec, err := decodeVector(vectors.Get(k))
			if err != nil {
				return fmt.Errorf("corrupt vector %x: %w", k, err)
			}
			if len(vec) != info.Dimension {
				return fmt.Errorf("vector %x has dimension %d, snapshot has %d", k, len(vec), info.Dimension)
			}
			snap.Segments = append(snap.Segments, domain.Segment{
				ID:         stored.ID,
				Content:    stored.Content,
				RawContent: stored.Raw,
				Metadata:   stored.Metadata,
				Embedding:  vec,
			})
		}

		if len(snap.Segments) != info.Count {
			return fmt.Errorf("snapshot declares %d segments, found %d", info.Count, len(snap.Segments))
		}
		return nil
	})
	if err != nil {
		return port.IndexSnapshot{}, false, err
	}

	return snap, true, nil
}

// positionKey keeps bbolt's byte ordering equal to insertion order.
func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
