// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/qianbin/drlp"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/co"
	"github.com/subquery/network-ledger/health"
	"github.com/subquery/network-ledger/kv"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/logdb"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
	"github.com/subquery/network-ledger/xenv"
)

var (
	logger   = log.WithContext("pkg", "ledger")
	headKey  = []byte("ledger.head")
	chainKey = []byte("ledger.chain")
)

// chainInfo is fixed at genesis. Block heights are derived from it.
type chainInfo struct {
	GenesisTime   uint64
	BlockInterval uint64
}

// height is the block height at unix time t.
func (c *chainInfo) height(t uint64) uint64 {
	if t <= c.GenesisTime {
		return 0
	}
	return (t - c.GenesisTime) / c.BlockInterval
}

// Head is the last committed command.
type Head struct {
	Number uint64     `json:"number"`
	Time   uint64     `json:"time"`
	Root   sq.Bytes32 `json:"root"`
}

// Receipt describes an executed command.
type Receipt struct {
	ID          sq.Bytes32    `json:"id"`
	Name        string        `json:"name"`
	Caller      sq.Address    `json:"caller"`
	BlockNumber uint64        `json:"blockNumber"`
	BlockHeight uint64        `json:"blockHeight"`
	BlockTime   uint64        `json:"blockTime"`
	Era         uint64        `json:"era"`
	StateRoot   sq.Bytes32    `json:"stateRoot"`
	Events      []*xenv.Event `json:"events"`
}

type Options struct {
	CacheSize int            // state read cache entries, 0 disables
	Health    *health.Health // fed by Run when set
}

// Ledger executes commands one at a time. Each successful command is a
// block: its state changes and head are committed in one kv batch and its
// events are appended to the log db.
type Ledger struct {
	mu     sync.Mutex
	db     kv.Store
	logs   *logdb.LogDB
	clock  clockwork.Clock
	stater *state.Stater
	head   Head
	chain  chainInfo
	feed   co.Signal
	health *health.Health
}

// Open loads the ledger head from db, writing genesis first when db is
// empty.
func Open(db kv.Store, logs *logdb.LogDB, clock clockwork.Clock, gene *Genesis, opts Options) (*Ledger, error) {
	l := &Ledger{
		db:     db,
		logs:   logs,
		clock:  clock,
		stater: state.NewStater(db, opts.CacheSize),
		health: opts.Health,
	}
	data, err := db.Get(headKey)
	if err != nil && !db.IsNotFound(err) {
		return nil, errors.Wrap(err, "load head")
	}
	if err == nil {
		if err := rlp.DecodeBytes(data, &l.head); err != nil {
			return nil, errors.Wrap(err, "decode head")
		}
		info, err := db.Get(chainKey)
		if err != nil {
			return nil, errors.Wrap(err, "load chain info")
		}
		if err := rlp.DecodeBytes(info, &l.chain); err != nil {
			return nil, errors.Wrap(err, "decode chain info")
		}
		logger.Info("ledger loaded", "number", l.head.Number, "root", l.head.Root)
		return l, nil
	}

	if gene == nil {
		return nil, errors.New("empty ledger requires a genesis")
	}
	if err := l.initialize(gene); err != nil {
		return nil, errors.Wrap(err, "genesis")
	}
	logger.Info("ledger initialized", "root", l.head.Root, "time", l.head.Time)
	return l, nil
}

func (l *Ledger) initialize(gene *Genesis) error {
	built, err := gene.Build()
	if err != nil {
		return err
	}
	now := gene.StartTime
	if now == 0 {
		now = uint64(l.clock.Now().Unix())
	}
	l.chain = chainInfo{GenesisTime: now, BlockInterval: gene.BlockInterval}
	if l.chain.BlockInterval == 0 {
		l.chain.BlockInterval = sq.DefaultBlockInterval
	}
	info, err := rlp.EncodeToBytes(&l.chain)
	if err != nil {
		return err
	}
	// written ahead of the genesis head, a partial write is redone on the next open
	if err := l.db.Put(chainKey, info); err != nil {
		return err
	}
	st := l.stater.NewState(sq.Bytes32{})
	env := xenv.New(st, &xenv.BlockContext{Time: now}, &xenv.CommandContext{Origin: built.Owner})
	if err := builtin.New(env).Initialize(built); err != nil {
		return err
	}
	_, err = l.commit(st, env, Head{Time: now}, sq.Bytes32{})
	return err
}

// commit writes state and head, then the events of the command.
func (l *Ledger) commit(st *state.State, env *xenv.Environment, head Head, cmdID sq.Bytes32) (Head, error) {
	stage := st.Stage()
	head.Root = stage.Root()
	enc, err := rlp.EncodeToBytes(&head)
	if err != nil {
		return Head{}, err
	}
	if err := stage.Commit(func(p kv.Putter) error { return p.Put(headKey, enc) }); err != nil {
		return Head{}, err
	}
	l.head = head

	if l.logs != nil && len(env.Events()) > 0 {
		if err := l.logs.NewBatch(head.Number, head.Time).
			Insert(cmdID, env.Caller(), env.Events()).
			Commit(); err != nil {
			// state is already durable, the feed misses these events
			logger.Error("failed to write events", "number", head.Number, "err", err)
		}
	}
	l.feed.Broadcast()
	return head, nil
}

// Head returns the last committed head.
func (l *Ledger) Head() Head {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

func (l *Ledger) Clock() clockwork.Clock { return l.clock }

// GenesisTime is the block time of the genesis head.
func (l *Ledger) GenesisTime() uint64 { return l.chain.GenesisTime }

// BlockInterval is the number of seconds per block height.
func (l *Ledger) BlockInterval() uint64 { return l.chain.BlockInterval }

// HeightAt is the block height commands executed at unix time t see.
func (l *Ledger) HeightAt(t uint64) uint64 { return l.chain.height(t) }

func (l *Ledger) now(prev uint64) uint64 {
	// block time never goes backwards
	return max(uint64(l.clock.Now().Unix()), prev)
}

func commandID(number uint64, caller sq.Address, name string) sq.Bytes32 {
	return sq.Blake2b(drlp.AppendUint(nil, number), caller.Bytes(), []byte(name))
}

// Execute runs fn as command name sent by caller. Nothing is written when
// fn fails.
func (l *Ledger) Execute(caller sq.Address, name string, fn func(*builtin.Contracts) error) (*Receipt, error) {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	number := l.head.Number + 1
	now := l.now(l.head.Time)
	block := &xenv.BlockContext{Number: l.chain.height(now), Time: now}
	cmd := &xenv.CommandContext{ID: commandID(number, caller, name), Origin: caller}
	st := l.stater.NewState(l.head.Root)
	env := xenv.New(st, block, cmd)
	contracts := builtin.New(env)

	if err := fn(contracts); err != nil {
		metricCommandCount().AddWithLabel(1, map[string]string{"name": name, "outcome": outcome(err)})
		logger.Debug("command rejected", "name", name, "caller", caller, "err", err)
		return nil, err
	}
	era, err := contracts.Era.EraNumber()
	if err != nil {
		return nil, err
	}
	head, err := l.commit(st, env, Head{Number: number, Time: block.Time}, cmd.ID)
	if err != nil {
		metricCommandCount().AddWithLabel(1, map[string]string{"name": name, "outcome": "error"})
		return nil, errors.Wrap(err, "commit")
	}

	metricCommandCount().AddWithLabel(1, map[string]string{"name": name, "outcome": "ok"})
	metricCommandDuration().Observe(time.Since(start).Milliseconds())
	metricEra().Set(int64(era))
	logger.Debug("command executed", "name", name, "caller", caller, "number", number, "events", len(env.Events()))

	return &Receipt{
		ID:          cmd.ID,
		Name:        name,
		Caller:      caller,
		BlockNumber: number,
		BlockHeight: block.Number,
		BlockTime:   block.Time,
		Era:         era,
		StateRoot:   head.Root,
		Events:      env.Events(),
	}, nil
}

func outcome(err error) string {
	if reverts.IsRevertErr(err) {
		return "reverted"
	}
	return "error"
}

// View runs fn against the committed state at the current time. Writes are
// discarded.
func (l *Ledger) View(fn func(*builtin.Contracts) error) error {
	l.mu.Lock()
	head := l.head
	l.mu.Unlock()

	st := l.stater.NewState(head.Root)
	now := l.now(head.Time)
	env := xenv.New(st, &xenv.BlockContext{Number: l.chain.height(now), Time: now}, nil)
	return fn(builtin.New(env))
}

// NewEventWaiter fires after every commit.
func (l *Ledger) NewEventWaiter() co.Waiter { return l.feed.NewWaiter() }

// EventsAfter reads committed events past the cursor seq.
func (l *Ledger) EventsAfter(ctx context.Context, seq int64, limit uint64) ([]*logdb.Event, error) {
	if l.logs == nil {
		return nil, nil
	}
	return l.logs.EventsAfter(ctx, seq, limit)
}

func (l *Ledger) Logs() *logdb.LogDB { return l.logs }

// Run keeps the era clock up to date, checking every interval until ctx
// is done.
func (l *Ledger) Run(ctx context.Context, interval time.Duration) {
	if l.health != nil {
		l.health.Running(true)
		l.health.Checked(l.Head().Number, nil)
		defer l.health.Running(false)
	}

	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("era keeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping era keeper......")
			return
		case <-ticker.Chan():
			err := l.Tick()
			if err != nil {
				logger.Warn("failed to update era", "err", err)
			}
			if l.health != nil {
				l.health.Checked(l.Head().Number, err)
			}
		}
	}
}

// Tick advances the era clock when the current era has elapsed. It writes
// nothing otherwise.
func (l *Ledger) Tick() error {
	var due bool
	if err := l.View(func(c *builtin.Contracts) error {
		current, err := c.Era.EraNumber()
		if err != nil {
			return err
		}
		projected, err := c.Era.Projected()
		if err != nil {
			return err
		}
		due = projected > current
		return nil
	}); err != nil {
		return err
	}
	if !due {
		return nil
	}
	_, err := l.Execute(sq.Address{}, "tick", func(c *builtin.Contracts) error {
		_, err := c.Era.SafeUpdateAndGetEra()
		return err
	})
	return err
}
