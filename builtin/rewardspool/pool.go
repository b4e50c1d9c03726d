// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardspool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/builtin/token"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

var logger = log.WithContext("pkg", "rewardspool")

// Bucket is the reward of a deployment in one era. Unclaimed values shrink
// as runners collect or forfeit.
type Bucket struct {
	TotalReward     *big.Int
	UnclaimedReward *big.Int
	UnclaimedLabor  *big.Int
	Runners         uint64
}

func (b *Bucket) normalize() *Bucket {
	for _, v := range []**big.Int{&b.TotalReward, &b.UnclaimedReward, &b.UnclaimedLabor} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
	return b
}

// Reward is a runner's entry in a bucket.
type Reward struct {
	Labor  *big.Int
	Reward *big.Int
}

// Entry names a bucket a runner has labor in.
type Entry struct {
	Deployment sq.Bytes32
	Era        uint64
}

func (e Entry) Bytes() []byte {
	return append(e.Deployment.Bytes(), storage.Uint64(e.Era).Bytes()...)
}

type Eras interface {
	SafeUpdateAndGetEra() (uint64, error)
}

type Rewards interface {
	AddInstantRewards(payer, runner sq.Address, amount *big.Int, era uint64) error
}

type Runners interface {
	IsRunner(addr sq.Address) (bool, error)
}

type laborKey = storage.Pair[Entry, sq.Address]

var slotRunnerEntries = storage.Slot("runner-entries")

// Pool collects per deployment and era rewards fed by labor.
type Pool struct {
	addr    sq.Address
	env     *xenv.Environment
	params  *params.Params
	token   *token.Token
	eras    Eras
	rewards Rewards
	runners Runners

	sctx    *storage.Context
	buckets *storage.Mapping[Entry, *Bucket]
	labors  *storage.Mapping[laborKey, *big.Int]
}

func New(
	addr sq.Address,
	env *xenv.Environment,
	params *params.Params,
	token *token.Token,
	eras Eras,
	rewards Rewards,
	runners Runners,
) *Pool {
	sctx := storage.NewContext(addr, env.State())
	return &Pool{
		addr:    addr,
		env:     env,
		params:  params,
		token:   token,
		eras:    eras,
		rewards: rewards,
		runners: runners,
		sctx:    sctx,
		buckets: storage.NewMapping[Entry, *Bucket](sctx, storage.Slot("buckets")),
		labors:  storage.NewMapping[laborKey, *big.Int](sctx, storage.Slot("labors")),
	}
}

func (p *Pool) Address() sq.Address { return p.addr }

func (p *Pool) entries(runner sq.Address) *storage.IndexedSet[Entry] {
	return storage.NewIndexedSet[Entry](p.sctx, storage.Derive(slotRunnerEntries, runner))
}

func (p *Pool) bucket(e Entry) (*Bucket, error) {
	b, err := p.buckets.Get(e)
	if err != nil {
		return nil, errors.Wrap(err, "get bucket")
	}
	return b.normalize(), nil
}

func (p *Pool) labor(e Entry, runner sq.Address) (*big.Int, error) {
	v, err := p.labors.Get(storage.PairOf(e, runner))
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = new(big.Int)
	}
	return v, nil
}

// Labor pulls amount from the labor source and credits it to runner's
// share of deployment in the current era.
func (p *Pool) Labor(deployment sq.Bytes32, runner sq.Address, amount *big.Int) error {
	if err := p.params.RequireNotMaintenance(); err != nil {
		return err
	}
	caller := p.env.Caller()
	if err := p.params.RequireRole(params.KeyLaborSource, caller, "RP001", "caller is not the labor source"); err != nil {
		return err
	}
	ok, err := p.runners.IsRunner(runner)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("G002", "not a registered runner")
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New("S001", "amount must be positive")
	}
	era, err := p.eras.SafeUpdateAndGetEra()
	if err != nil {
		return err
	}
	if err := p.token.Transfer(caller, p.addr, amount); err != nil {
		return err
	}

	e := Entry{Deployment: deployment, Era: era}
	b, err := p.bucket(e)
	if err != nil {
		return err
	}
	l, err := p.labor(e, runner)
	if err != nil {
		return err
	}
	if l.Sign() == 0 {
		b.Runners++
		if _, err := p.entries(runner).Add(e); err != nil {
			return err
		}
	}
	l.Add(l, amount)
	b.TotalReward.Add(b.TotalReward, amount)
	b.UnclaimedReward.Add(b.UnclaimedReward, amount)
	b.UnclaimedLabor.Add(b.UnclaimedLabor, amount)
	if err := p.labors.Set(storage.PairOf(e, runner), l); err != nil {
		return err
	}
	if err := p.buckets.Set(e, b); err != nil {
		return err
	}
	return p.env.Log(p.addr, "Labor", []sq.Address{runner}, map[string]any{
		"deployment": deployment,
		"era":        era,
		"amount":     amount.String(),
	})
}

// Collect pays runner's share of a bucket whose era has ended.
func (p *Pool) Collect(deployment sq.Bytes32, era uint64, runner sq.Address) error {
	if err := p.params.RequireNotMaintenance(); err != nil {
		return err
	}
	current, err := p.eras.SafeUpdateAndGetEra()
	if err != nil {
		return err
	}
	return p.collect(Entry{Deployment: deployment, Era: era}, runner, current)
}

// BatchCollect collects every ended bucket the runner has labor in and
// returns how many were collected.
func (p *Pool) BatchCollect(runner sq.Address) (int, error) {
	if err := p.params.RequireNotMaintenance(); err != nil {
		return 0, err
	}
	current, err := p.eras.SafeUpdateAndGetEra()
	if err != nil {
		return 0, err
	}
	all, err := p.entries(runner).All()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range all {
		if e.Era >= current {
			continue
		}
		if err := p.collect(e, runner, current); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// collect settles runner's entry. An unregistered runner forfeits its share
// to the runners left in the bucket; what nobody is left to claim is burnt.
func (p *Pool) collect(e Entry, runner sq.Address, current uint64) error {
	if e.Era >= current {
		return reverts.New("RP003", "era not ended")
	}
	l, err := p.labor(e, runner)
	if err != nil {
		return err
	}
	if l.Sign() == 0 {
		return reverts.New("RP002", "nothing to collect")
	}
	b, err := p.bucket(e)
	if err != nil {
		return err
	}
	registered, err := p.runners.IsRunner(runner)
	if err != nil {
		return err
	}

	share := new(big.Int)
	if registered {
		share = sq.MulDiv(b.UnclaimedReward, l, b.UnclaimedLabor)
	}
	b.UnclaimedReward.Sub(b.UnclaimedReward, share)
	b.UnclaimedLabor.Sub(b.UnclaimedLabor, l)
	b.Runners--

	p.labors.Delete(storage.PairOf(e, runner))
	if _, err := p.entries(runner).Remove(e); err != nil {
		return err
	}
	if b.Runners == 0 {
		if b.UnclaimedReward.Sign() > 0 {
			logger.Debug("burning unclaimed pool reward", "deployment", e.Deployment, "era", e.Era, "amount", b.UnclaimedReward)
			if err := p.token.Burn(p.addr, b.UnclaimedReward); err != nil {
				return err
			}
		}
		p.buckets.Delete(e)
	} else if err := p.buckets.Set(e, b); err != nil {
		return err
	}

	if share.Sign() > 0 {
		if err := p.rewards.AddInstantRewards(p.addr, runner, share, current); err != nil {
			return err
		}
	}
	return p.env.Log(p.addr, "Collect", []sq.Address{runner}, map[string]any{
		"deployment": e.Deployment,
		"era":        e.Era,
		"amount":     share.String(),
		"forfeited":  !registered,
	})
}

// GetReward returns runner's labor in a bucket and the reward it would get
// collecting now.
func (p *Pool) GetReward(deployment sq.Bytes32, era uint64, runner sq.Address) (*Reward, error) {
	e := Entry{Deployment: deployment, Era: era}
	l, err := p.labor(e, runner)
	if err != nil {
		return nil, err
	}
	if l.Sign() == 0 {
		return &Reward{Labor: new(big.Int), Reward: new(big.Int)}, nil
	}
	b, err := p.bucket(e)
	if err != nil {
		return nil, err
	}
	return &Reward{Labor: l, Reward: sq.MulDiv(b.UnclaimedReward, l, b.UnclaimedLabor)}, nil
}

func (p *Pool) GetBucket(deployment sq.Bytes32, era uint64) (*Bucket, error) {
	return p.bucket(Entry{Deployment: deployment, Era: era})
}

// Entries lists the buckets runner has uncollected labor in.
func (p *Pool) Entries(runner sq.Address) ([]Entry, error) {
	return p.entries(runner).All()
}
