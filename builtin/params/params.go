// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
)

// Role keys.
var (
	KeyOwner       = storage.Slot("owner")
	KeyTreasury    = storage.Slot("treasury")
	KeyReporter    = storage.Slot("reporter")
	KeySpender     = storage.Slot("spender")
	KeyLaborSource = storage.Slot("labor-source")
)

// Numeric setting keys.
var (
	KeyMaintenance              = storage.Slot("maintenance")
	KeyLockPeriod               = storage.Slot("lock-period")
	KeyIndexerLeverageLimit     = storage.Slot("indexer-leverage-limit")
	KeyUnbondFeeRate            = storage.Slot("unbond-fee-rate")
	KeyMinimumStakingAmount     = storage.Slot("minimum-staking-amount")
	KeyMaxUnbondingRequests     = storage.Slot("max-unbonding-requests")
	KeyInflationRate            = storage.Slot("inflation-rate")
	KeyIssuancePerBlock         = storage.Slot("issuance-per-block")
	KeyMinimumDeploymentBooster = storage.Slot("minimum-deployment-booster")
)

var defaults = map[sq.Bytes32]*big.Int{
	KeyMaintenance:              big.NewInt(0),
	KeyLockPeriod:               big.NewInt(1000),
	KeyIndexerLeverageLimit:     big.NewInt(10),
	KeyUnbondFeeRate:            big.NewInt(1000),
	KeyMinimumStakingAmount:     sq.SQT(1000),
	KeyMaxUnbondingRequests:     big.NewInt(50),
	KeyInflationRate:            big.NewInt(1000),
	KeyIssuancePerBlock:         sq.SQT(1),
	KeyMinimumDeploymentBooster: sq.SQT(10000),
}

// Default returns the built-in value of a numeric setting.
func Default(key sq.Bytes32) *big.Int {
	if v, ok := defaults[key]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

type setting struct {
	Value *big.Int
}

// Params holds protocol wide roles and settings.
type Params struct {
	values *storage.Mapping[sq.Bytes32, *setting]
	roles  *storage.Mapping[sq.Bytes32, sq.Address]
}

func New(addr sq.Address, state *state.State) *Params {
	sctx := storage.NewContext(addr, state)
	return &Params{
		values: storage.NewMapping[sq.Bytes32, *setting](sctx, storage.Slot("values")),
		roles:  storage.NewMapping[sq.Bytes32, sq.Address](sctx, storage.Slot("roles")),
	}
}

// Get returns the setting, falling back to its default when never set.
func (p *Params) Get(key sq.Bytes32) (*big.Int, error) {
	exists, err := p.values.Exists(key)
	if err != nil {
		return nil, errors.Wrap(err, "get param")
	}
	if !exists {
		return Default(key), nil
	}
	s, err := p.values.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "get param")
	}
	return s.Value, nil
}

func (p *Params) GetUint64(key sq.Bytes32) (uint64, error) {
	v, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (p *Params) Set(key sq.Bytes32, value *big.Int) error {
	return p.values.Set(key, &setting{Value: new(big.Int).Set(value)})
}

// Role returns the address holding the role.
func (p *Params) Role(key sq.Bytes32) (sq.Address, error) {
	addr, err := p.roles.Get(key)
	if err != nil {
		return sq.Address{}, errors.Wrap(err, "get role")
	}
	return addr, nil
}

func (p *Params) SetRole(key sq.Bytes32, addr sq.Address) error {
	return p.roles.Set(key, addr)
}

func (p *Params) Owner() (sq.Address, error) { return p.Role(KeyOwner) }

func (p *Params) Treasury() (sq.Address, error) { return p.Role(KeyTreasury) }

// RequireOwner fails with G001 unless caller is the owner.
func (p *Params) RequireOwner(caller sq.Address) error {
	return p.RequireRole(KeyOwner, caller, "G001", "caller is not the owner")
}

// RequireRole fails with the given revert code unless caller holds the role.
func (p *Params) RequireRole(key sq.Bytes32, caller sq.Address, code, message string) error {
	holder, err := p.Role(key)
	if err != nil {
		return err
	}
	if holder != caller {
		return reverts.New(code, message)
	}
	return nil
}

func (p *Params) Maintenance() (bool, error) {
	v, err := p.Get(KeyMaintenance)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

func (p *Params) SetMaintenance(on bool) error {
	v := big.NewInt(0)
	if on {
		v.SetInt64(1)
	}
	return p.Set(KeyMaintenance, v)
}

// RequireNotMaintenance fails with G019 while maintenance mode is on.
func (p *Params) RequireNotMaintenance() error {
	on, err := p.Maintenance()
	if err != nil {
		return err
	}
	if on {
		return reverts.New("G019", "maintenance mode")
	}
	return nil
}
