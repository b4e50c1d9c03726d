// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"slices"

	"github.com/subquery/network-ledger/kv"
	"github.com/subquery/network-ledger/sq"
)

// Stage holds the net changes of a state, ready to be committed.
type Stage struct {
	root    sq.Bytes32
	keys    [][]byte
	values  [][]byte
	commit  func(extra []func(kv.Putter) error) error
	changes int
}

// Stage collapses the journal into the net change set. The resulting root
// chains the previous root with every changed key and value in key order.
func (s *State) Stage() *Stage {
	latest := make(map[string][]byte)
	s.sm.Journal(func(k stateKey, v []byte) bool {
		latest[string(k.encode())] = v
		return true
	})

	keys := make([]string, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	st := &Stage{changes: len(keys)}
	hasher := sq.NewBlake2b()
	hasher.Write(s.root[:])
	for _, k := range keys {
		v := latest[k]
		hasher.Write([]byte(k))
		hasher.Write(v)
		st.keys = append(st.keys, []byte(k))
		st.values = append(st.values, v)
	}
	hasher.Sum(st.root[:0])

	st.commit = func(extra []func(kv.Putter) error) error {
		bulk := s.db.Bulk()
		for _, put := range extra {
			if err := put(bulk); err != nil {
				return &Error{err}
			}
		}
		for i, k := range st.keys {
			v := st.values[i]
			var err error
			if len(v) == 0 {
				err = bulk.Delete(k)
			} else {
				err = bulk.Put(k, v)
			}
			if err != nil {
				return &Error{err}
			}
		}
		if err := bulk.Write(); err != nil {
			return &Error{err}
		}
		if s.cache != nil {
			for i, k := range st.keys {
				s.cache.Add(string(k), st.values[i])
			}
			s.cache.Stats().Publish("state")
		}
		metricCommittedKeys().Add(int64(len(st.keys)))
		return nil
	}
	return st
}

// Root returns the state digest after this stage is committed.
func (st *Stage) Root() sq.Bytes32 { return st.root }

// Len returns the number of changed keys.
func (st *Stage) Len() int { return st.changes }

// Commit writes all changes into the kv store atomically. extra puts are
// written in the same batch.
func (st *Stage) Commit(extra ...func(kv.Putter) error) error { return st.commit(extra) }
