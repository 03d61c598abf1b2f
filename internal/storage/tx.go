package storage

import (
	"context"
	"fmt"

	"github.com/papapumpkin/ddk/internal/projects"
)

// Tx is the in-memory state handed to an Update callback. Changes made to
// Data and Compilers are persisted when the callback returns nil.
type Tx struct {
	Data      *projects.ProjectsData
	Compilers projects.Compilers
}

// Update loads both files under the store lock, runs fn, and writes back
// whatever fn changed. When fn fails nothing is written. A corrupt file is
// replaced by its default, with a copy kept next to it.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	return s.withLock(ctx, func() error {
		rawData, err := s.read(DataFileName)
		if err != nil {
			return err
		}
		rawCompilers, err := s.read(CompilersFileName)
		if err != nil {
			return err
		}
		data, dataCorrupt := s.decodeData(rawData)
		compilers, compilersCorrupt := s.decodeCompilers(rawCompilers)

		tx := &Tx{Data: data, Compilers: compilers}
		if err := fn(tx); err != nil {
			return err
		}
		if tx.Data == nil {
			tx.Data = projects.New()
		}
		if tx.Compilers == nil {
			tx.Compilers = projects.Compilers{}
		}

		outData, err := encodeData(tx.Data)
		if err != nil {
			return err
		}
		outCompilers, err := projects.EncodeCompilers(tx.Compilers)
		if err != nil {
			return err
		}

		if changed(rawData, outData) {
			if dataCorrupt {
				s.backup(DataFileName, rawData)
			}
			if err := s.write(DataFileName, outData); err != nil {
				return err
			}
		}
		if changed(rawCompilers, outCompilers) {
			if compilersCorrupt {
				s.backup(CompilersFileName, rawCompilers)
			}
			if err := s.write(CompilersFileName, outCompilers); err != nil {
				return err
			}
		}
		return nil
	})
}

// View loads both files under the store lock and runs fn without writing.
func (s *Store) View(ctx context.Context, fn func(*Tx) error) error {
	return s.withLock(ctx, func() error {
		rawData, err := s.read(DataFileName)
		if err != nil {
			return err
		}
		rawCompilers, err := s.read(CompilersFileName)
		if err != nil {
			return err
		}
		data, _ := s.decodeData(rawData)
		compilers, _ := s.decodeCompilers(rawCompilers)
		return fn(&Tx{Data: data, Compilers: compilers})
	})
}

// Repair loads the project store without the automatic repair pass, fixes
// it, and writes it back when anything changed. It returns the fixes made.
func (s *Store) Repair(ctx context.Context) ([]string, error) {
	var notes []string
	err := s.withLock(ctx, func() error {
		raw, err := s.read(DataFileName)
		if err != nil || raw == nil {
			return err
		}
		data, cleared, err := unmarshalData(raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", s.Path(DataFileName), err)
		}
		notes = append(cleared, data.Repair()...)
		if len(notes) == 0 {
			return nil
		}
		out, err := encodeData(data)
		if err != nil {
			return err
		}
		return s.write(DataFileName, out)
	})
	return notes, err
}

// Inspect decodes the project store as it is on disk, without repairing it.
// A missing file yields an empty store; a corrupt one is an error. Unreadable
// ranks are left unset so Check reports them.
func (s *Store) Inspect() (*projects.ProjectsData, error) {
	raw, err := s.read(DataFileName)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return projects.New(), nil
	}
	data, _, err := unmarshalData(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path(DataFileName), err)
	}
	data.Reindex()
	return data, nil
}
