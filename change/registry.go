package change

import (
	"fmt"
	"sort"

	"github.com/getpup/sqlshift"
)

// Constructor builds a fresh, unconfigured change for a tag.
type Constructor func() sqlshift.Change

var registry = map[string]Constructor{
	"createTable": func() sqlshift.Change { return &CreateTable{} },
	"dropTable":   func() sqlshift.Change { return &DropTable{} },
	"renameTable": func() sqlshift.Change { return &RenameTable{} },
	"addColumn":   func() sqlshift.Change { return &AddColumn{} },
	"dropColumn":  func() sqlshift.Change { return &DropColumn{} },
	"createIndex": func() sqlshift.Change { return &CreateIndex{} },
	"dropIndex":   func() sqlshift.Change { return &DropIndex{} },
	"sql":         func() sqlshift.Change { return &RawSQL{} },
}

// New constructs an unconfigured change for the given changelog tag. The
// caller sets attributes and then calls SetUp before any generation.
func New(tag string) (sqlshift.Change, error) {
	ctor, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("unknown change tag %q", tag)
	}
	return ctor(), nil
}

// Register adds a custom change kind under a tag. Panics if the tag is
// already taken, so collisions surface at start-up rather than parse time.
func Register(tag string, ctor Constructor) {
	if _, exists := registry[tag]; exists {
		panic(fmt.Sprintf("change: tag %q already registered", tag))
	}
	registry[tag] = ctor
}

// Tags returns all registered tags, sorted.
func Tags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
