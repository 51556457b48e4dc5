package catalog

import (
	"fmt"
	"strings"
)

// Catalog is the ordered set of installable tools. Order is menu order
// and is what selector indices refer to.
type Catalog struct {
	tools  []Tool
	byName map[string]int
}

// New builds a catalog, rejecting duplicate names, unknown kinds and
// script tools without a known strategy.
func New(tools []Tool) (*Catalog, error) {
	c := &Catalog{
		tools:  tools,
		byName: make(map[string]int, len(tools)),
	}
	for i, t := range c.tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool %d has no name", i+1)
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		switch t.Kind {
		case KindPackage:
		case KindScript:
			if !validStrategy(t.Strategy) {
				return nil, fmt.Errorf("tool %q: unknown strategy %q", t.Name, t.Strategy)
			}
		default:
			return nil, fmt.Errorf("tool %q: unknown kind %q", t.Name, t.Kind)
		}
		c.byName[t.Name] = i
	}
	return c, nil
}

// All returns the tools in menu order.
func (c *Catalog) All() []Tool {
	return c.tools
}

// Len returns the number of tools.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Get returns a tool by name, or nil if not found.
func (c *Catalog) Get(name string) *Tool {
	i, ok := c.byName[name]
	if !ok {
		return nil
	}
	return &c.tools[i]
}

// Index returns the 0-based position of name, or -1.
func (c *Catalog) Index(name string) int {
	if i, ok := c.byName[name]; ok {
		return i
	}
	return -1
}

// Names maps 0-based indices to tool names, preserving index order.
func (c *Catalog) Names(indices []int) []string {
	names := make([]string, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(c.tools) {
			names = append(names, c.tools[i].Name)
		}
	}
	return names
}

// ByKind returns tools of one kind in menu order.
func (c *Catalog) ByKind(kind Kind) []Tool {
	var results []Tool
	for _, t := range c.tools {
		if t.Kind == kind {
			results = append(results, t)
		}
	}
	return results
}

// Search matches query against name, label and description.
func (c *Catalog) Search(query string) []Tool {
	q := strings.ToLower(query)
	var results []Tool
	for _, t := range c.tools {
		if matches(t, q) {
			results = append(results, t)
		}
	}
	return results
}

func matches(t Tool, query string) bool {
	for _, field := range []string{t.Name, t.Label, t.Description, t.Command} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return string(t.Kind) == query
}
