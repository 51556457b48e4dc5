package planner

import (
	"reflect"
	"testing"
)

func installedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		selection []string
		installed []string
		satisfied []string
		pending   []string
	}{
		{"mixed", []string{"htop", "jq", "tmux", "go"}, []string{"jq", "go"}, []string{"jq", "go"}, []string{"htop", "tmux"}},
		{"none installed", []string{"b", "a"}, nil, nil, []string{"b", "a"}},
		{"all installed", []string{"a", "b"}, []string{"a", "b"}, []string{"a", "b"}, nil},
		{"empty selection", nil, []string{"a"}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Build(tt.selection, installedSet(tt.installed...))
			if !reflect.DeepEqual(p.AlreadySatisfied, tt.satisfied) {
				t.Errorf("AlreadySatisfied: expected %v, got %v", tt.satisfied, p.AlreadySatisfied)
			}
			if !reflect.DeepEqual(p.PendingInstall, tt.pending) {
				t.Errorf("PendingInstall: expected %v, got %v", tt.pending, p.PendingInstall)
			}
			if p.Empty() != (len(tt.pending) == 0) {
				t.Errorf("Empty: got %v", p.Empty())
			}
		})
	}
}

func TestBuildIdempotent(t *testing.T) {
	selection := []string{"a", "b", "c", "d"}
	probe := installedSet("b", "d")

	first := Build(selection, probe)
	second := Build(selection, probe)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("plans differ: %+v vs %+v", first, second)
	}
}

func TestBuildChecksEachToolOnce(t *testing.T) {
	calls := map[string]int{}
	Build([]string{"a", "b"}, func(name string) bool {
		calls[name]++
		return false
	})
	if calls["a"] != 1 || calls["b"] != 1 {
		t.Errorf("expected one probe per tool, got %v", calls)
	}
}
