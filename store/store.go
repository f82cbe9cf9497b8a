// Package store persists filter documents: the canonical JSON form of a
// predicate, zstd-compressed, written through a billy filesystem and keyed
// by a generated ID.
package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/jvitoroc/filter"
)

const fileExt = ".fltr"

type Store struct {
	fs  billy.Filesystem
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New creates a store on the given filesystem (osfs for disk, memfs for
// tests).
func New(fs billy.Filesystem) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	return &Store{fs: fs, enc: enc, dec: dec}, nil
}

// Save serializes the predicate to its canonical JSON form and writes it
// compressed under a fresh ID.
func (s *Store) Save(pred filter.Predicate) (string, error) {
	if pred == nil {
		return "", fmt.Errorf("cannot save an absent filter")
	}

	doc, err := filter.ToJSON(pred, nil)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := util.WriteFile(s.fs, id+fileExt, s.enc.EncodeAll(doc, nil), 0666); err != nil {
		return "", fmt.Errorf("an error occurred writing filter '%s': %w", id, err)
	}

	return id, nil
}

// Load reads a stored document back into a predicate tree.
func (s *Store) Load(id string) (filter.Predicate, error) {
	blob, err := util.ReadFile(s.fs, id+fileExt)
	if err != nil {
		return nil, fmt.Errorf("an error occurred reading filter '%s': %w", id, err)
	}

	doc, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("filter '%s' is corrupted: %w", id, err)
	}

	return filter.ParseJSON(doc)
}

func (s *Store) Delete(id string) error {
	return s.fs.Remove(id + fileExt)
}

// List returns the IDs of every stored filter, sorted.
func (s *Store) List() ([]string, error) {
	infos, err := s.fs.ReadDir(".")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}

	sort.Strings(ids)
	return ids, nil
}
