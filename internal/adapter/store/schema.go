package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current snapshot format version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// SchemaInfo is the header stored with every snapshot.
type SchemaInfo struct {
	Version   int    `json:"version"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Model     string `json:"model"`
	Language  string `json:"language"`
	Count     int    `json:"count"`
}

func readSchemaInfo(tx *bbolt.Tx) (SchemaInfo, error) {
	var info SchemaInfo

	b := tx.Bucket(bucketMeta)
	if b == nil {
		return info, fmt.Errorf("snapshot has no meta bucket")
	}
	data := b.Get(keySchema)
	if data == nil {
		return info, fmt.Errorf("snapshot has no schema header")
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("corrupt schema header: %w", err)
	}
	return info, nil
}

func (info SchemaInfo) check() error {
	switch {
	case info.Version == 0:
		return fmt.Errorf("snapshot has no schema version")
	case info.Version > CurrentSchemaVersion:
		return fmt.Errorf("snapshot created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
	case info.Version < CurrentSchemaVersion:
		return fmt.Errorf("snapshot schema v%d is no longer supported", info.Version)
	case info.Count < 0:
		return fmt.Errorf("snapshot declares negative segment count %d", info.Count)
	case info.Count > 0 && info.Dimension <= 0:
		return fmt.Errorf("snapshot declares invalid dimension %d", info.Dimension)
	}
	return nil
}
