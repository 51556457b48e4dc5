// Package planner splits a selection into tools that are already present
// and tools that still need installing.
package planner

// Plan partitions a selection. Both lists keep selection order.
type Plan struct {
	AlreadySatisfied []string
	PendingInstall   []string
}

// Build classifies names with isInstalled. It has no side effects beyond
// whatever isInstalled does, and is never cached.
func Build(names []string, isInstalled func(name string) bool) Plan {
	var p Plan
	for _, name := range names {
		if isInstalled(name) {
			p.AlreadySatisfied = append(p.AlreadySatisfied, name)
		} else {
			p.PendingInstall = append(p.PendingInstall, name)
		}
	}
	return p
}

// Empty reports whether there is nothing to install.
func (p Plan) Empty() bool {
	return len(p.PendingInstall) == 0
}
