// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
)

// BlockContext is the ledger clock a command executes at.
type BlockContext struct {
	Number uint64 // height, counted in block intervals since genesis
	Time   uint64 // unix seconds
}

// CommandContext identifies the command being executed.
type CommandContext struct {
	ID     sq.Bytes32
	Origin sq.Address
}

// Event is emitted by builtin services while executing a command.
type Event struct {
	Emitter  sq.Address      `json:"emitter"`
	Name     string          `json:"name"`
	Subjects []sq.Address    `json:"subjects,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Environment carries everything a builtin call can observe.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	cmdCtx   *CommandContext
	events   []*Event
}

func New(state *state.State, blockCtx *BlockContext, cmdCtx *CommandContext) *Environment {
	if cmdCtx == nil {
		cmdCtx = &CommandContext{}
	}
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		cmdCtx:   cmdCtx,
	}
}

func (env *Environment) State() *state.State             { return env.state }
func (env *Environment) BlockContext() *BlockContext     { return env.blockCtx }
func (env *Environment) CommandContext() *CommandContext { return env.cmdCtx }
func (env *Environment) Caller() sq.Address              { return env.cmdCtx.Origin }
func (env *Environment) Now() uint64                     { return env.blockCtx.Time }

// Log records an event. data is json encoded.
func (env *Environment) Log(emitter sq.Address, name string, subjects []sq.Address, data any) error {
	var raw json.RawMessage
	if data != nil {
		enc, err := json.Marshal(data)
		if err != nil {
			return errors.WithMessage(err, "encode event "+name)
		}
		raw = enc
	}
	env.events = append(env.events, &Event{
		Emitter:  emitter,
		Name:     name,
		Subjects: subjects,
		Data:     raw,
	})
	return nil
}

// Events returns events emitted so far.
func (env *Environment) Events() []*Event { return env.events }

// EventCheckpoint and RevertEvents let a partially failed call drop the
// events it emitted, paired with state checkpoints.
func (env *Environment) EventCheckpoint() int { return len(env.events) }

func (env *Environment) RevertEvents(cp int) {
	env.events = env.events[:cp]
}
