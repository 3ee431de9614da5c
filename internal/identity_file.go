package internal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// identityFile is the YAML document backing FileIdentityStore. Several keys
// may share one file.
type identityFile struct {
	Values    map[string]string `yaml:"values"`
	UpdatedAt time.Time         `yaml:"updated_at"`
}

// FileIdentityStore keeps the user id in a small YAML file.
type FileIdentityStore struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileIdentityStore creates a store backed by path. The file is created
// on first Save.
func NewFileIdentityStore(path, key string) *FileIdentityStore {
	return &FileIdentityStore{path: path, key: key}
}

// Path returns the backing file path.
func (s *FileIdentityStore) Path() string {
	return s.path
}

func (s *FileIdentityStore) read() (*identityFile, error) {
	doc := &identityFile{Values: map[string]string{}}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", s.path)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", s.path)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc, nil
}

// Load implements IdentityStore.
func (s *FileIdentityStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", false, &IdentityError{Driver: string(StoreTypeFile), Op: "load", Err: err}
	}
	id := doc.Values[s.key]
	return id, id != "", nil
}

// Save implements IdentityStore.
func (s *FileIdentityStore) Save(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return &IdentityError{Driver: string(StoreTypeFile), Op: "save", Err: err}
	}
	doc.Values[s.key] = id
	doc.UpdatedAt = time.Now().UTC()

	data, err := yaml.Marshal(doc)
	if err != nil {
		return &IdentityError{Driver: string(StoreTypeFile), Op: "save", Err: errors.Wrap(err, "failed to marshal identity")}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &IdentityError{Driver: string(StoreTypeFile), Op: "save", Err: errors.Wrap(err, "failed to create directory")}
	}

	// write to a temp file and rename so a crash never leaves a torn file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return &IdentityError{Driver: string(StoreTypeFile), Op: "save", Err: errors.Wrap(err, "failed to write identity")}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return &IdentityError{Driver: string(StoreTypeFile), Op: "save", Err: errors.Wrap(err, "failed to replace identity file")}
	}
	return nil
}

// Close implements IdentityStore.
func (s *FileIdentityStore) Close() error {
	return nil
}
