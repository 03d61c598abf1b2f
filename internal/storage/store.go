// Package storage persists the project store and the compiler registry as
// TOML files in a configuration directory. Writers are serialized twice: by
// a mutex within the process and by an advisory lock file across processes.
// Every write goes to a temporary file that is renamed over the target, so
// readers never observe a partial file.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/papapumpkin/ddk/internal/filelock"
	"github.com/papapumpkin/ddk/internal/lexorank"
	"github.com/papapumpkin/ddk/internal/projects"
)

// File names inside the configuration directory.
const (
	DataFileName      = "projects.toml"
	CompilersFileName = "compilers.toml"
	LockFileName      = ".ddk.lock"
)

// ErrLockTimeout indicates the store lock was not obtained in time.
var ErrLockTimeout error = filelock.ErrTimeout

// ErrIO marks a failure to read or write a store file.
var ErrIO = errors.New("storage i/o")

// Options configures a Store.
type Options struct {
	Dir string
	// LockTimeout caps the wait for the store lock and LockRetryInterval is
	// the pause between tries. Zero values take the filelock defaults.
	LockTimeout       time.Duration
	LockRetryInterval time.Duration
	Logger            *zap.Logger
}

// Store is a handle on one configuration directory. It is safe for
// concurrent use.
type Store struct {
	dir  string
	lock filelock.Options
	log  *zap.Logger

	mu sync.Mutex // serializes writers in this process

	hashMu  sync.Mutex
	written map[string][sha256.Size]byte // last content this store wrote, by file name
}

// Open prepares the directory and returns a Store on it.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("storage: no directory configured")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, ioErr("creating", opts.Dir, err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		dir:     opts.Dir,
		lock:    filelock.Options{Timeout: opts.LockTimeout, RetryInterval: opts.LockRetryInterval},
		log:     log.Named("storage"),
		written: make(map[string][sha256.Size]byte),
	}, nil
}

// Dir returns the configuration directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of a file in the directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load reads the project store. A missing, unreadable or corrupt file yields
// an empty store; structural problems in a readable file are repaired.
func (s *Store) Load() *projects.ProjectsData {
	raw, err := s.read(DataFileName)
	if err != nil {
		s.log.Warn("reading store, using an empty one", zap.Error(err))
		return projects.New()
	}
	data, _ := s.decodeData(raw)
	return data
}

// LoadCompilers reads the compiler registry, falling back to the built-in
// defaults when the file is missing or cannot be used.
func (s *Store) LoadCompilers() projects.Compilers {
	raw, err := s.read(CompilersFileName)
	if err != nil {
		s.log.Warn("reading compilers, using defaults", zap.Error(err))
		return projects.DefaultCompilers()
	}
	c, _ := s.decodeCompilers(raw)
	return c
}

// Save replaces the project store on disk.
func (s *Store) Save(ctx context.Context, data *projects.ProjectsData) error {
	return s.withLock(ctx, func() error {
		out, err := encodeData(data)
		if err != nil {
			return err
		}
		return s.write(DataFileName, out)
	})
}

// SaveCompilers replaces the compiler registry on disk.
func (s *Store) SaveCompilers(ctx context.Context, c projects.Compilers) error {
	return s.withLock(ctx, func() error {
		out, err := projects.EncodeCompilers(c)
		if err != nil {
			return err
		}
		return s.write(CompilersFileName, out)
	})
}

// withLock runs fn holding both the process mutex and the file lock.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := filelock.Acquire(ctx, s.Path(LockFileName), s.lock)
	if err != nil {
		return fmt.Errorf("locking store: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.log.Error("releasing store lock", zap.String("path", lock.Path()), zap.Error(err))
		}
	}()
	return fn()
}

// read returns the file content, or nil when the file does not exist.
func (s *Store) read(name string) ([]byte, error) {
	raw, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ioErr("reading", s.Path(name), err)
	}
	return raw, nil
}

// decodeData parses raw into a store, reporting whether it was corrupt.
func (s *Store) decodeData(raw []byte) (*projects.ProjectsData, bool) {
	if raw == nil {
		return projects.New(), false
	}
	data, notes, err := unmarshalData(raw)
	if err != nil {
		s.log.Warn("store file is corrupt, using an empty store",
			zap.String("path", s.Path(DataFileName)), zap.Error(err))
		return projects.New(), true
	}
	for _, note := range notes {
		s.log.Warn("store file has an unreadable rank", zap.String("fix", note))
	}
	for _, note := range data.Repair() {
		s.log.Warn("repaired store", zap.String("fix", note))
	}
	return data, false
}

// unmarshalData decodes raw into a store without repairing it. A rank that
// cannot be parsed is dropped and left unset rather than failing the whole
// file; one note is returned per dropped rank.
func unmarshalData(raw []byte) (*projects.ProjectsData, []string, error) {
	data := projects.New()
	err := toml.Unmarshal(raw, data)
	if err == nil {
		return data, nil, nil
	}

	var doc map[string]any
	if toml.Unmarshal(raw, &doc) != nil {
		return nil, nil, err
	}
	notes := dropBadRanks("", doc)
	if len(notes) == 0 {
		return nil, nil, err
	}
	cleaned, merr := toml.Marshal(doc)
	if merr != nil {
		return nil, nil, err
	}
	data = projects.New()
	if err := toml.Unmarshal(cleaned, data); err != nil {
		return nil, nil, err
	}
	return data, notes, nil
}

// dropBadRanks removes every "rank" key under v whose value does not parse.
func dropBadRanks(path string, v any) []string {
	var notes []string
	switch v := v.(type) {
	case map[string]any:
		for key, child := range v {
			at := key
			if path != "" {
				at = path + "." + key
			}
			if key == "rank" {
				if text, ok := child.(string); !ok || !validRank(text) {
					delete(v, key)
					notes = append(notes, fmt.Sprintf("cleared unreadable rank %v at %s", child, at))
				}
				continue
			}
			notes = append(notes, dropBadRanks(at, child)...)
		}
	case []any:
		for i, child := range v {
			notes = append(notes, dropBadRanks(fmt.Sprintf("%s[%d]", path, i), child)...)
		}
	}
	return notes
}

func validRank(text string) bool {
	_, err := lexorank.Parse(text)
	return err == nil
}

func (s *Store) decodeCompilers(raw []byte) (projects.Compilers, bool) {
	if raw == nil {
		return projects.DefaultCompilers(), false
	}
	c, err := projects.DecodeCompilers(raw)
	if err != nil {
		s.log.Warn("compilers file is corrupt, using defaults",
			zap.String("path", s.Path(CompilersFileName)), zap.Error(err))
		return projects.DefaultCompilers(), true
	}
	return c, false
}

func encodeData(data *projects.ProjectsData) ([]byte, error) {
	data.Sort()
	out, err := toml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding store: %w", err)
	}
	return out, nil
}

// write atomically replaces name with content.
func (s *Store) write(name string, content []byte) error {
	path := s.Path(name)
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return ioErr("creating temp file for", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ioErr("writing", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ioErr("syncing", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ioErr("closing", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return ioErr("renaming", path, err)
	}

	s.hashMu.Lock()
	s.written[name] = sha256.Sum256(content)
	s.hashMu.Unlock()
	s.log.Debug("wrote file", zap.String("path", path), zap.Int("bytes", len(content)))
	return nil
}

// backup keeps a copy of a corrupt file before it is overwritten.
func (s *Store) backup(name string, raw []byte) {
	path := s.Path(name) + ".corrupt"
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		s.log.Error("backing up corrupt file", zap.String("path", path), zap.Error(err))
		return
	}
	s.log.Warn("kept a copy of the corrupt file", zap.String("path", path))
}

// OwnWrite reports whether content is exactly what this store last wrote to
// the named file.
func (s *Store) OwnWrite(name string, content []byte) bool {
	s.hashMu.Lock()
	defer s.hashMu.Unlock()
	sum, ok := s.written[name]
	return ok && sum == sha256.Sum256(content)
}

func ioErr(verb, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, verb, path, err)
}

// changed reports whether out differs from what was read.
func changed(raw, out []byte) bool {
	return raw == nil || !bytes.Equal(raw, out)
}
