package ir

import "github.com/rickypai/natsort"

// SortedNames returns the keys of m in natural order, so that "light10"
// follows "light9".
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	natsort.Strings(names)
	return names
}
