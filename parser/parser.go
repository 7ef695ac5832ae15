// Package parser loads YAML changelog documents into configured change
// sets. Each change entry is a single-key mapping whose key is the change
// tag; the registry in the change package maps tags to constructors, the
// node decodes directly into the kind's configuration struct, and SetUp
// validates the result before the change is handed to the engine.
//
// Document shape:
//
//	changesets:
//	  - id: add-person-age
//	    author: alice
//	    changes:
//	      - addColumn:
//	          table: person
//	          column: {name: age, type: int}
//	      - createIndex:
//	          index: idx_person_age
//	          table: person
//	          columns: [age]
package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/getpup/sqlshift"
	"github.com/getpup/sqlshift/change"
	"gopkg.in/yaml.v3"
)

type document struct {
	ChangeSets []rawChangeSet `yaml:"changesets"`
}

type rawChangeSet struct {
	ID          string                 `yaml:"id"`
	Author      string                 `yaml:"author"`
	AlwaysRun   bool                   `yaml:"alwaysRun"`
	RunOnChange bool                   `yaml:"runOnChange"`
	Changes     []map[string]yaml.Node `yaml:"changes"`
}

// ParseFile loads a changelog from disk. The file path becomes the Path
// component of every parsed change set's identity.
func ParseFile(path string) ([]*sqlshift.ChangeSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open changelog: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a changelog document from r. path is recorded as the source
// location in each change set's identity.
func Parse(r io.Reader, path string) ([]*sqlshift.ChangeSet, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: invalid changelog: %w", path, err)
	}

	seen := make(map[sqlshift.Identity]bool)
	sets := make([]*sqlshift.ChangeSet, 0, len(doc.ChangeSets))
	for _, raw := range doc.ChangeSets {
		cs, err := buildChangeSet(raw, path)
		if err != nil {
			return nil, err
		}
		if seen[cs.Identity()] {
			return nil, fmt.Errorf("%s: duplicate change set %s", path, cs.Identity())
		}
		seen[cs.Identity()] = true
		sets = append(sets, cs)
	}
	return sets, nil
}

func buildChangeSet(raw rawChangeSet, path string) (*sqlshift.ChangeSet, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("%s: change set without id", path)
	}
	if raw.Author == "" {
		return nil, fmt.Errorf("%s: change set %q without author", path, raw.ID)
	}
	if len(raw.Changes) == 0 {
		return nil, fmt.Errorf("%s: change set %q contains no changes", path, raw.ID)
	}

	cs := &sqlshift.ChangeSet{
		ID:          raw.ID,
		Author:      raw.Author,
		Path:        path,
		AlwaysRun:   raw.AlwaysRun,
		RunOnChange: raw.RunOnChange,
	}

	for i, entry := range raw.Changes {
		if len(entry) != 1 {
			return nil, fmt.Errorf("%s: change set %q: change %d must have exactly one tag", path, raw.ID, i)
		}
		for tag, node := range entry {
			c, err := change.New(tag)
			if err != nil {
				return nil, fmt.Errorf("%s: change set %q: %w", path, raw.ID, err)
			}
			if err := node.Decode(c); err != nil {
				return nil, fmt.Errorf("%s: change set %q: invalid %s: %w", path, raw.ID, tag, err)
			}
			if err := c.SetUp(); err != nil {
				return nil, fmt.Errorf("%s: change set %q: %w", path, raw.ID, err)
			}
			cs.Add(c)
		}
	}
	return cs, nil
}
