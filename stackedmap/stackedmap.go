// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

// Getter loads a value from the source beneath the stack.
type Getter[K comparable, V any] func(key K) (value V, exist bool, err error)

// Entry is one journaled Put.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []Entry[K, V]
}

// StackedMap keeps maps in a stack. Each level sees everything put on the
// levels below it, and popping a level reverts its puts.
type StackedMap[K comparable, V any] struct {
	src    Getter[K, V]
	levels []*level[K, V]
	revs   map[K][]int // level indexes holding the key, ascending
}

// New creates a StackedMap with one level on top of src.
func New[K comparable, V any](src Getter[K, V]) *StackedMap[K, V] {
	sm := &StackedMap[K, V]{
		src:  src,
		revs: make(map[K][]int),
	}
	sm.Push()
	return sm
}

// Depth returns depth of the stack.
func (sm *StackedMap[K, V]) Depth() int { return len(sm.levels) }

// Push pushes a new level and returns the depth before the push.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop drops the top level, reverting its puts.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.revs[key]
		if len(revs) == 1 {
			delete(sm.revs, key)
		} else {
			sm.revs[key] = revs[:len(revs)-1]
		}
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops levels until the stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get returns the value visible at the top of the stack, falling back to src.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if revs, ok := sm.revs[key]; ok {
		return sm.levels[revs[len(revs)-1]].kvs[key], true, nil
	}
	return sm.src(key)
}

// Put writes key into the top level. It panics if the stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	idx := len(sm.levels) - 1
	top := sm.levels[idx]
	if _, ok := top.kvs[key]; !ok {
		sm.revs[key] = append(sm.revs[key], idx)
	}
	top.kvs[key] = value
	top.journal = append(top.journal, Entry[K, V]{key, value})
}

// Journal calls cb for every live Put in order, until cb returns false.
func (sm *StackedMap[K, V]) Journal(cb func(key K, value V) bool) {
	for _, lvl := range sm.levels {
		for _, e := range lvl.journal {
			if !cb(e.Key, e.Value) {
				return
			}
		}
	}
}
