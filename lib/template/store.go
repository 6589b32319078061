// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/muxux-dev/muxux/lib/codec"
)

// ErrTemplateNotFound marks a load of a name that was never saved.
var ErrTemplateNotFound = errors.New("template not found")

// templateExt is the on-disk file extension. Files are deterministic
// CBOR, one template each, named "<name>.tpl".
const templateExt = ".tpl"

// builtinDefs holds the stock templates every installation carries.
// JSONC so the definitions stay readable; stripped to JSON and decoded
// at seed time.
//
//go:embed builtins.jsonc
var builtinDefs []byte

// Store persists templates in one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the template, silently replacing any previous version
// of the same name. The write is atomic: a temp file in the same
// directory is renamed over the target.
func (s *Store) Save(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	encoded, err := codec.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode template %q: %w", t.Name, err)
	}

	target := s.path(t.Name)
	temp, err := os.CreateTemp(s.dir, t.Name+".*")
	if err != nil {
		return fmt.Errorf("save template %q: %w", t.Name, err)
	}
	if _, err := temp.Write(encoded); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return fmt.Errorf("save template %q: %w", t.Name, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("save template %q: %w", t.Name, err)
	}
	if err := os.Rename(temp.Name(), target); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("save template %q: %w", t.Name, err)
	}
	return nil
}

// Load reads one template by name.
func (s *Store) Load(name string) (Template, error) {
	if err := ValidateName(name); err != nil {
		return Template{}, err
	}
	encoded, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if err != nil {
		return Template{}, fmt.Errorf("load template %q: %w", name, err)
	}
	var t Template
	if err := codec.Unmarshal(encoded, &t); err != nil {
		return Template{}, fmt.Errorf("decode template %q: %w", name, err)
	}
	if err := t.Validate(); err != nil {
		return Template{}, fmt.Errorf("load template %q: %w", name, err)
	}
	return t, nil
}

// List returns every saved template name, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), templateExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), templateExt))
	}
	sort.Strings(names)
	return names, nil
}

// SeedBuiltins writes the stock templates, replacing same-named user
// saves. Called once at daemon start: user overwrites of a built-in
// survive until the next restart.
func (s *Store) SeedBuiltins() error {
	builtins, err := Builtins()
	if err != nil {
		return err
	}
	for _, t := range builtins {
		if err := s.Save(t); err != nil {
			return fmt.Errorf("seed builtin %q: %w", t.Name, err)
		}
	}
	return nil
}

// Builtins decodes the embedded stock template definitions.
func Builtins() ([]Template, error) {
	var templates []Template
	if err := json.Unmarshal(jsonc.ToJSON(builtinDefs), &templates); err != nil {
		return nil, fmt.Errorf("decode builtin templates: %w", err)
	}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("builtin templates: %w", err)
		}
	}
	return templates, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+templateExt)
}
