// Package watchedlist provides an ordered, duplicate-free collection that remembers which items
// were added or removed since it was loaded, so repositories can persist only the difference.
package watchedlist

import "slices"

// List tracks a base set (as loaded from storage), the items added and the base items removed.
// The current view is base ∪ added − removed. A List is not safe for concurrent use.
type List[T any] struct {
	equal   func(a, b T) bool
	base    []T
	added   []T
	removed []T
}

// New returns a List whose base is initial with duplicates dropped. equal defines item identity.
func New[T any](equal func(a, b T) bool, initial ...T) *List[T] {
	l := &List[T]{equal: equal}
	for _, item := range initial {
		if !l.contains(l.base, item) {
			l.base = append(l.base, item)
		}
	}
	return l
}

// Items returns the current items: base order first, then added items in insertion order.
func (l *List[T]) Items() []T {
	out := make([]T, 0, len(l.base)+len(l.added))
	for _, item := range l.base {
		if !l.contains(l.removed, item) {
			out = append(out, item)
		}
	}
	return append(out, l.added...)
}

// NewItems returns the items added since load.
func (l *List[T]) NewItems() []T { return slices.Clone(l.added) }

// RemovedItems returns the base items removed since load.
func (l *List[T]) RemovedItems() []T { return slices.Clone(l.removed) }

// Len returns the number of current items.
func (l *List[T]) Len() int { return len(l.base) - len(l.removed) + len(l.added) }

// Has reports whether item is currently in the list.
func (l *List[T]) Has(item T) bool {
	if l.contains(l.added, item) {
		return true
	}
	return l.contains(l.base, item) && !l.contains(l.removed, item)
}

// Add makes item current. Re-adding a removed base item cancels its removal.
func (l *List[T]) Add(item T) {
	if l.contains(l.removed, item) {
		l.removed = l.without(l.removed, item)
		return
	}
	if l.Has(item) {
		return
	}
	l.added = append(l.added, item)
}

// Remove drops item from the current view. Removing an added item forgets it entirely.
func (l *List[T]) Remove(item T) {
	if l.contains(l.added, item) {
		l.added = l.without(l.added, item)
		return
	}
	if l.contains(l.base, item) && !l.contains(l.removed, item) {
		l.removed = append(l.removed, item)
	}
}

// Update makes the current view equal to items, recording the needed additions and removals.
func (l *List[T]) Update(items []T) {
	for _, cur := range l.Items() {
		if !l.contains(items, cur) {
			l.Remove(cur)
		}
	}
	for _, item := range items {
		l.Add(item)
	}
}

func (l *List[T]) contains(items []T, item T) bool {
	return slices.ContainsFunc(items, func(x T) bool { return l.equal(x, item) })
}

func (l *List[T]) without(items []T, item T) []T {
	return slices.DeleteFunc(slices.Clone(items), func(x T) bool { return l.equal(x, item) })
}
