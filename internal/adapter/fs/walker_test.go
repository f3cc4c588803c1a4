package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker_IncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "docs/b.md", "b")
	writeFile(t, root, "docs/c.pdf", "c")
	writeFile(t, root, "node_modules/pkg/d.txt", "d")
	writeFile(t, root, ".rag/index.txt", "e")

	w := NewWalker([]string{"**/*.txt", "**/*.md"}, []string{"**/node_modules/**", ".rag/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
		if !filepath.IsAbs(f.Path) {
			t.Errorf("expected absolute path, got %s", f.Path)
		}
	}

	expected := []string{"a.txt", "docs/b.md"}
	if len(rels) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, rels)
	}
	for i := range expected {
		if rels[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, rels)
		}
	}
}

func TestWalker_DefaultIncludesEverything(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x/y/z.bin", "z")

	files, err := NewWalker(nil, nil).Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].RelPath != "x/y/z.bin" || files[0].Size != 1 {
		t.Errorf("unexpected files %+v", files)
	}
}
