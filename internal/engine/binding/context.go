// # internal/engine/binding/context.go
package binding

import (
	"fmt"
	"log/slog"

	"hbind/internal/engine/ast"
)

// DefaultLibName names the generated lib block.
const DefaultLibName = "Lib"

// Options configure one generation run.
type Options struct {
	LibName string
	// Internal reports whether a coordinate belongs to bundled or system
	// header material; such declarations are not emitted.
	Internal func(ast.Coord) bool
	Logger   *slog.Logger
}

// Context is the state of one transformation run. It is created per run and
// never shared.
type Context struct {
	opts Options

	counter int
	entries []string
	stubs   []string

	// opaque holds type names emitted as "type X = Void*".
	opaque map[string]bool
	// defined holds type names that have a member list somewhere in the unit.
	// It is filled by Prescan and only read afterwards.
	defined map[string]bool
	// lifted maps inline bodies to the type name they were emitted under, so
	// a body shared by several declarators is emitted once.
	lifted      map[*ast.Aggregate]string
	liftedEnums map[*ast.Enum]string

	// enumFallback holds names already aliased to Int32 for undefined enums.
	enumFallback map[string]bool
}

func NewContext(opts Options) *Context {
	if opts.LibName == "" {
		opts.LibName = DefaultLibName
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Context{
		opts:        opts,
		opaque:      make(map[string]bool),
		defined:     make(map[string]bool),
		lifted:      make(map[*ast.Aggregate]string),
		liftedEnums: make(map[*ast.Enum]string),

		enumFallback: make(map[string]bool),
	}
}

// anonymous returns the next synthetic type name.
func (c *Context) anonymous() string {
	c.counter++
	return fmt.Sprintf("Anonymous%d", c.counter)
}

func (c *Context) addEntry(entry string) {
	c.entries = append(c.entries, entry)
}

func (c *Context) internal(pos ast.Coord) bool {
	return !pos.IsZero() && c.opts.Internal != nil && c.opts.Internal(pos)
}

// IsOpaque reports whether name was emitted as an opaque pointer alias.
func (c *Context) IsOpaque(name string) bool { return c.opaque[name] }

// IsDefined reports whether the prescan found a member list for name.
func (c *Context) IsDefined(name string) bool { return c.defined[name] }

// Module returns the entries accumulated so far.
func (c *Context) Module() *Module {
	return &Module{
		Name:    c.opts.LibName,
		Entries: append([]string(nil), c.entries...),
		Stubs:   append([]string(nil), c.stubs...),

		OpaqueTypes: len(c.opaque),
	}
}
