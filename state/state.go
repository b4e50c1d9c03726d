// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/subquery/network-ledger/cache"
	"github.com/subquery/network-ledger/kv"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/stackedmap"
)

const (
	balanceKind byte = 'b'
	storageKind byte = 's'
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

type stateKey struct {
	kind byte
	addr sq.Address
	slot sq.Bytes32
}

// encode returns the persistent key.
func (k stateKey) encode() []byte {
	buf := make([]byte, 0, 1+len(k.addr)+len(k.slot))
	buf = append(buf, k.kind)
	buf = append(buf, k.addr[:]...)
	if k.kind == storageKind {
		buf = append(buf, k.slot[:]...)
	}
	return buf
}

// State is the revertable view of ledger state on top of a kv store.
type State struct {
	db    kv.Store
	cache *cache.LRU[string, []byte]
	sm    *stackedmap.StackedMap[stateKey, []byte]
	root  sq.Bytes32
}

// New creates a state reading from db. root is the digest of the state
// the db currently holds. c may be nil.
func New(db kv.Store, root sq.Bytes32, c *cache.LRU[string, []byte]) *State {
	s := &State{
		db:    db,
		cache: c,
		root:  root,
	}
	s.sm = stackedmap.New(s.load)
	return s
}

// Root returns the digest of the committed state this instance was based on.
func (s *State) Root() sq.Bytes32 { return s.root }

func (s *State) load(key stateKey) ([]byte, bool, error) {
	enc := key.encode()
	if s.cache != nil {
		if v, ok := s.cache.Get(string(enc)); ok {
			return v, true, nil
		}
	}
	v, err := s.db.Get(enc)
	if err != nil {
		if !s.db.IsNotFound(err) {
			return nil, false, err
		}
		v = nil
	}
	if s.cache != nil {
		s.cache.Add(string(enc), v)
	}
	return v, true, nil
}

func (s *State) get(key stateKey) ([]byte, error) {
	v, _, err := s.sm.Get(key)
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// GetBalance returns the token balance of addr.
func (s *State) GetBalance(addr sq.Address) (*big.Int, error) {
	v, err := s.get(stateKey{kind: balanceKind, addr: addr})
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(v), nil
}

// SetBalance sets the token balance of addr. Negative balances are rejected.
func (s *State) SetBalance(addr sq.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return &Error{fmt.Errorf("negative balance for %v", addr)}
	}
	s.sm.Put(stateKey{kind: balanceKind, addr: addr}, balance.Bytes())
	return nil
}

// GetStorage returns the storage word for the given address and key.
func (s *State) GetStorage(addr sq.Address, key sq.Bytes32) (sq.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return sq.Bytes32{}, err
	}
	if len(raw) == 0 {
		return sq.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return sq.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// structured values are summarized by their hash
		return sq.Blake2b(raw), nil
	}
	return sq.BytesToBytes32(content), nil
}

// SetStorage sets the storage word for the given address and key.
func (s *State) SetStorage(addr sq.Address, key, value sq.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns the rlp encoded storage value.
func (s *State) GetRawStorage(addr sq.Address, key sq.Bytes32) (rlp.RawValue, error) {
	return s.get(stateKey{storageKind, addr, key})
}

// SetRawStorage sets the rlp encoded storage value. Empty raw deletes it.
func (s *State) SetRawStorage(addr sq.Address, key sq.Bytes32, raw rlp.RawValue) {
	s.sm.Put(stateKey{storageKind, addr, key}, raw)
}

// EncodeStorage sets a storage value produced by enc.
func (s *State) EncodeStorage(addr sq.Address, key sq.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage reads a storage value and passes it to dec.
func (s *State) DecodeStorage(addr sq.Address, key sq.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state and returns its revision.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts all changes made after the checkpoint.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}
