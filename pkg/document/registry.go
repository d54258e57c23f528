// Package document tracks the text of open documents and maps them to the
// file identifiers the analysis engine understands.
package document

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Registry handles document storage and lookup.
type Registry struct {
	store *sync.Map // map[string]*Snapshot

	fs       afero.Fs
	include  []string
	exclude  []string
	language string
	onLoad   func(ctx context.Context, snap *Snapshot)
}

type RegistryOption func(*Registry)

// WithFilesystemFallback lets Resolve read documents that were never opened
// by the client, as long as their path matches one of the include globs.
func WithFilesystemFallback(fs afero.Fs, include, exclude []string) RegistryOption {
	return func(r *Registry) {
		r.fs = fs
		r.include = include
		r.exclude = exclude
	}
}

// WithDefaultLanguage sets the language id given to snapshots loaded from disk.
func WithDefaultLanguage(languageID string) RegistryOption {
	return func(r *Registry) {
		r.language = languageID
	}
}

// WithDiskLoadHook runs f for every snapshot Resolve reads from disk, before
// it is returned. Engines that only answer for files they were told about
// use it to open the file.
func WithDiskLoadHook(f func(ctx context.Context, snap *Snapshot)) RegistryOption {
	return func(r *Registry) {
		r.onLoad = f
	}
}

func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		store:    &sync.Map{},
		language: "typescript",
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, pattern := range append(append([]string{}, r.include...), r.exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid glob pattern %q", pattern)
		}
	}

	return r, nil
}

func (me *Registry) Store(snap *Snapshot) {
	me.store.Store(NormalizeURI(snap.URI), snap)
}

func (me *Registry) Delete(uri string) {
	me.store.Delete(NormalizeURI(uri))
}

// Get returns only documents that were stored explicitly.
func (me *Registry) Get(uri string) (*Snapshot, bool) {
	v, ok := me.store.Load(NormalizeURI(uri))
	if !ok {
		return nil, false
	}
	snap, ok := v.(*Snapshot)
	return snap, ok
}

// Resolve looks up a document snapshot. A document that cannot be found is
// not an error, it is reported as absent.
func (me *Registry) Resolve(ctx context.Context, uri string) (*Snapshot, bool) {
	if snap, ok := me.Get(uri); ok {
		return snap, true
	}

	if me.fs == nil {
		return nil, false
	}

	p := NormalizeURI(uri)
	if !me.matches(p) {
		zerolog.Ctx(ctx).Trace().Str("path", p).Msg("document not tracked and outside include globs")
		return nil, false
	}

	content, err := afero.ReadFile(me.fs, p)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", p).Msg("document not found on filesystem")
		return nil, false
	}

	snap := NewSnapshot(FileURI(p), me.language, 0, string(content))
	if me.onLoad != nil {
		me.onLoad(ctx, snap)
	}
	// the client owns stored documents, disk reads are never cached
	return snap, true
}

func (me *Registry) matches(p string) bool {
	// globs are matched against the path without its leading slash
	slashed := strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")

	for _, pattern := range me.exclude {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return false
		}
	}

	if len(me.include) == 0 {
		return true
	}

	for _, pattern := range me.include {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}

	return false
}

// EngineFileID is the path the analysis engine knows the document by.
func (me *Registry) EngineFileID(snap *Snapshot) string {
	return NormalizeURI(snap.URI)
}

// CallerResource maps an engine file path back to a URI the client can open.
func (me *Registry) CallerResource(p string) string {
	return FileURI(p)
}
