package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"ragqa/internal/domain"
	"ragqa/internal/port"
)

func testSnapshot() port.IndexSnapshot {
	return port.IndexSnapshot{
		Dimension: 3,
		Metric:    "cosine",
		Model:     "hash-3",
		Language:  "english",
		Segments: []domain.Segment{
			{ID: "s1", Content: "cat sat mat", RawContent: "The cat sat on the mat", Metadata: map[string]string{"source": "a.txt"}, Embedding: []float32{1, 0, 0}},
			{ID: "s2", Content: "dogs bark", RawContent: "Dogs bark", Metadata: map[string]string{"source": "b.txt"}, Embedding: []float32{0, 1, 0.5}},
			{ID: "s3", Content: "birds", RawContent: "Birds", Embedding: []float32{0, 0, 1}},
		},
	}
}

func TestBoltStore_LoadMissing(t *testing.T) {
	s := NewBoltStore(filepath.Join(t.TempDir(), "index.db"))

	_, ok, err := s.Load()
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing file")
	}
}

func TestBoltStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")
	s := NewBoltStore(path)

	want := testSnapshot()
	if err := s.Save(want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := NewBoltStore(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}

	if got.Dimension != 3 || got.Metric != "cosine" || got.Model != "hash-3" || got.Language != "english" {
		t.Errorf("header not preserved: %+v", got)
	}
	if len(got.Segments) != len(want.Segments) {
		t.Fatalf("expected %d segments, got %d", len(want.Segments), len(got.Segments))
	}
	for i := range want.Segments {
		w, g := want.Segments[i], got.Segments[i]
		if w.ID != g.ID || w.Content != g.Content || w.RawContent != g.RawContent {
			t.Errorf("segment %d mismatch: want %+v, got %+v", i, w, g)
		}
		if w.Source() != g.Source() {
			t.Errorf("segment %d metadata mismatch", i)
		}
		for j := range w.Embedding {
			if w.Embedding[j] != g.Embedding[j] {
				t.Errorf("segment %d embedding mismatch at %d", i, j)
			}
		}
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the index file to remain, got %d entries", len(entries))
	}
}

func TestBoltStore_SaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s := NewBoltStore(path)

	snap := testSnapshot()
	if err := s.Save(snap); err != nil {
		t.Fatal(err)
	}
	snap.Segments = snap.Segments[:1]
	if err := s.Save(snap); err != nil {
		t.Fatal(err)
	}

	got, _, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Segments) != 1 {
		t.Errorf("expected 1 segment after replace, got %d", len(got.Segments))
	}
}

func TestBoltStore_FailedSaveKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s := NewBoltStore(path)

	if err := s.Save(testSnapshot()); err != nil {
		t.Fatal(err)
	}

	bad := testSnapshot()
	bad.Segments[1].Embedding = []float32{1, 2}
	if err := s.Save(bad); err == nil {
		t.Fatal("expected error for inconsistent snapshot")
	}

	got, ok, err := s.Load()
	if err != nil || !ok {
		t.Fatalf("expected previous snapshot to survive, ok=%v err=%v", ok, err)
	}
	if len(got.Segments) != 3 {
		t.Errorf("expected 3 segments, got %d", len(got.Segments))
	}
}

func TestBoltStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	if err := os.WriteFile(path, []byte("definitely not a bolt database, just some bytes"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := NewBoltStore(path).Load(); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestBoltStore_SchemaChecks(t *testing.T) {
	tests := []struct {
		name   string
		info   SchemaInfo
		extras int
	}{
		{"newer version", SchemaInfo{Version: CurrentSchemaVersion + 1, Dimension: 3}, 0},
		{"missing version", SchemaInfo{Dimension: 3}, 0},
		{"count mismatch", SchemaInfo{Version: CurrentSchemaVersion, Dimension: 3, Count: 5}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "index.db")
			writeRaw(t, path, tt.info, tt.extras)

			if _, _, err := NewBoltStore(path).Load(); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func writeRaw(t *testing.T, path string, info SchemaInfo, segments int) {
	t.Helper()

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, _ := tx.CreateBucket(bucketMeta)
		segs, _ := tx.CreateBucket(bucketSegments)
		vecs, _ := tx.CreateBucket(bucketVectors)
		data, _ := json.Marshal(info)
		if err := meta.Put(keySchema, data); err != nil {
			return err
		}
		for i := 0; i < segments; i++ {
			seg, _ := json.Marshal(storedSegment{ID: "x", Content: "x", Raw: "x"})
			if err := segs.Put(positionKey(i), seg); err != nil {
				return err
			}
			if err := vecs.Put(positionKey(i), encodeVector([]float32{1, 2, 3})); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0, -1.5, 3.25, 1e-7}
	got, err := decodeVector(encodeVector(v))
	if err != nil {
		t.Fatal(err)
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("index %d: want %v, got %v", i, v[i], got[i])
		}
	}

	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated vector")
	}
	if _, err := decodeVector(nil); err == nil {
		t.Error("expected error for missing vector")
	}
}
