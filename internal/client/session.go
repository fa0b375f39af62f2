package client

import (
	"encoding/json"
	"os"
	"sync"
)

// The session file holds exactly two entries: who is logged in and the
// bearer token proving it.  Everything else is fetched fresh.
const (
	keyUser  = "portal_user"
	keyToken = "portal_token"
)

// SessionStore persists the logged-in identity between runs of the CLI.
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Clear() error
}

// FileSession is a SessionStore backed by a small JSON file next to the
// binary.  Writes go straight to disk so a crash never loses a login.
type FileSession struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

// NewFileSession loads the session file at path, treating a missing
// file as an empty session.
func NewFileSession(path string) (*FileSession, error) {
	fs := &FileSession{path: path, values: make(map[string]string)}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&fs.values); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileSession) Get(key string) (string, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.values[key]
	return v, ok
}

func (fs *FileSession) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values[key] = value
	return fs.save()
}

// Clear forgets the stored identity and token and persists the empty
// session, so a subsequent run starts logged out.
func (fs *FileSession) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values = make(map[string]string)
	return fs.save()
}

// save assumes fs.mu is held.
func (fs *FileSession) save() error {
	f, err := os.OpenFile(fs.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(fs.values)
}
