package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"benchkeep/internal/benchdata"
)

// Store defines the interface for loading and saving the history document.
type Store interface {
	Load(ctx context.Context) (*benchdata.Document, error)
	Save(ctx context.Context, doc *benchdata.Document) error
	Append(ctx context.Context, suite string, run benchdata.Run, maxItems int) (*benchdata.Document, error)
}

// FileStore implements Store on a data.js (or .json) file.
type FileStore struct {
	path    string
	repoURL string
	mu      sync.Mutex
}

// NewFileStore returns a store for path. repoURL fills in the document's
// repository when the file does not exist yet.
func NewFileStore(path, repoURL string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &FileStore{path: path, repoURL: repoURL}, nil
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (*benchdata.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FileStore) Save(ctx context.Context, doc *benchdata.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, doc)
}

// Append loads the document, adds run to suite and writes it back.
func (s *FileStore) Append(ctx context.Context, suite string, run benchdata.Run, maxItems int) (*benchdata.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := doc.AddRun(suite, run, maxItems); err != nil {
		return nil, err
	}
	if err := s.save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) load(ctx context.Context) (*benchdata.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return benchdata.New(s.repoURL), nil
		}
		return nil, err
	}
	doc, err := benchdata.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if doc.RepoURL == "" {
		doc.RepoURL = s.repoURL
	}
	return doc, nil
}

func (s *FileStore) save(ctx context.Context, doc *benchdata.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	var err error
	if filepath.Ext(s.path) == ".json" {
		err = benchdata.EncodeJSON(&buf, doc)
	} else {
		err = benchdata.Encode(&buf, doc)
	}
	if err != nil {
		return err
	}

	// Write to a sibling temp file and rename so readers never see a partial document.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
