package vectorindex

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"caselaw-rag/internal/domain"
)

const (
	indexFileName = "index.gob"
	idMapFileName = "chunk_ids.gob"
)

// indexFile is the on-disk shape of the vector matrix artifact.
type indexFile struct {
	Dim     int
	Vectors []float32
}

// Save writes the index artifact pair into dir, replacing any previous
// build. Each file is written to a temp path and renamed so a crashed build
// never leaves a half-written artifact; the id map is renamed last.
func Save(dir string, ix *Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create vector dir: %w", err)
	}

	if err := writeGob(filepath.Join(dir, indexFileName), indexFile{Dim: ix.Dim, Vectors: ix.Vectors}); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := writeGob(filepath.Join(dir, idMapFileName), ix.IDs); err != nil {
		return fmt.Errorf("failed to write id map file: %w", err)
	}
	return nil
}

// Load reads the artifact pair from dir. The two files are only meaningful
// together: a missing half means the index is not built. It returns
// domain.ErrIndexNotBuilt when either file is absent.
func Load(dir string) (*Index, error) {
	var file indexFile
	if err := readGob(filepath.Join(dir, indexFileName), &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrIndexNotBuilt
		}
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var ids []string
	if err := readGob(filepath.Join(dir, idMapFileName), &ids); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrIndexNotBuilt
		}
		return nil, fmt.Errorf("failed to read id map file: %w", err)
	}

	if file.Dim <= 0 || len(file.Vectors) != file.Dim*len(ids) {
		return nil, fmt.Errorf("index artifact corrupt: %d floats for %d ids of dim %d", len(file.Vectors), len(ids), file.Dim)
	}

	return &Index{Dim: file.Dim, Vectors: file.Vectors, IDs: ids}, nil
}

func writeGob(path string, value any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := gob.NewEncoder(tmp).Encode(value); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readGob(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return gob.NewDecoder(f).Decode(out)
}
