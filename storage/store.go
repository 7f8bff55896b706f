// Package storage uploads pipeline artifacts to blob storage and hands
// back their public addresses.
package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/consent-api/external/supabase"
)

var (
	ErrArtifactExists = errors.New("artifact already exists")
	ErrEmptyArtifact  = errors.New("artifact is empty")
	ErrUnknownAddress = errors.New("address does not belong to the store")
)

// Error is returned for every failed storage operation
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return "storage " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}

// Backend is a blob store with create-only writes
type Backend interface {
	Upload(ctx context.Context, path, contentType string, data []byte) error
	Delete(ctx context.Context, paths ...string) error
	PublicURL(path string) string
	PathOf(address string) (string, bool)
}

type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// NewSupabaseStore builds a store on a Supabase bucket and warns when the
// key is not a service role key, since uploads usually need one
func NewSupabaseStore(endpoint, key, bucket string) *Store {
	c := supabase.New(endpoint, key, bucket)

	role, err := c.KeyRole()
	switch {
	case err != nil:
		log.WithField("prefix", "storage").WithError(err).Warn("fail to inspect storage key")
	case role != supabase.ServiceRole:
		log.WithField("prefix", "storage").WithField("role", role).Warn("storage key is not a service role key")
	}

	return New(c)
}

// Upload writes data at path and returns its public address. An object
// already stored at path is left untouched.
func (s *Store) Upload(ctx context.Context, data []byte, contentType, path string) (string, error) {
	path = strings.TrimPrefix(path, "/")

	if len(data) == 0 {
		return "", &Error{Op: "upload", Path: path, Err: ErrEmptyArtifact}
	}

	if err := s.backend.Upload(ctx, path, contentType, data); err != nil {
		if errors.Is(err, supabase.ErrObjectExists) {
			err = ErrArtifactExists
		}
		return "", &Error{Op: "upload", Path: path, Err: errors.Wrap(err, "fail to upload artifact")}
	}

	return s.backend.PublicURL(path), nil
}

// Delete removes the artifacts at the given public addresses
func (s *Store) Delete(ctx context.Context, addresses ...string) error {
	paths := make([]string, 0, len(addresses))
	for _, a := range addresses {
		p, ok := s.backend.PathOf(a)
		if !ok {
			return &Error{Op: "delete", Path: a, Err: ErrUnknownAddress}
		}
		paths = append(paths, p)
	}

	if len(paths) == 0 {
		return nil
	}

	if err := s.backend.Delete(ctx, paths...); err != nil {
		return &Error{Op: "delete", Path: strings.Join(paths, ","), Err: errors.Wrap(err, "fail to delete artifacts")}
	}
	return nil
}
