// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/sq"
)

// ParseAccount accepts a hex address or a name, which maps to its named
// address.
func ParseAccount(s string) (sq.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sq.Address{}, errors.New("empty account")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		addr, err := sq.ParseAddress(s)
		if err != nil {
			return sq.Address{}, errors.Wrapf(err, "account %q", s)
		}
		return *addr, nil
	}
	return sq.NamedAddress(s), nil
}

type paramDef struct {
	key    sq.Bytes32
	amount bool // value is a token amount
}

// paramNames maps the settings names used in genesis and admin requests
// to their keys.
var paramNames = map[string]paramDef{
	"lockPeriod":               {key: params.KeyLockPeriod},
	"indexerLeverageLimit":     {key: params.KeyIndexerLeverageLimit},
	"unbondFeeRate":            {key: params.KeyUnbondFeeRate},
	"minimumStakingAmount":     {key: params.KeyMinimumStakingAmount, amount: true},
	"maxUnbondingRequests":     {key: params.KeyMaxUnbondingRequests},
	"inflationRate":            {key: params.KeyInflationRate},
	"issuancePerBlock":         {key: params.KeyIssuancePerBlock, amount: true},
	"minimumDeploymentBooster": {key: params.KeyMinimumDeploymentBooster, amount: true},
}

// ParseParam converts a named setting to its key and value. Token amounts
// are decimal SQT, everything else an integer.
func ParseParam(name, value string) (sq.Bytes32, *big.Int, error) {
	def, ok := paramNames[name]
	if !ok {
		return sq.Bytes32{}, nil, errors.Errorf("unknown param %q", name)
	}
	if def.amount {
		v, err := sq.ParseSQT(value)
		if err != nil {
			return sq.Bytes32{}, nil, errors.Wrapf(err, "param %v", name)
		}
		return def.key, v, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return sq.Bytes32{}, nil, errors.Wrapf(err, "param %v", name)
	}
	return def.key, new(big.Int).SetUint64(n), nil
}

// ReadParams returns every named setting, formatted the way ParseParam
// accepts it.
func ReadParams(c *builtin.Contracts) (map[string]string, error) {
	out := make(map[string]string, len(paramNames))
	for name, def := range paramNames {
		v, err := c.Params.Get(def.key)
		if err != nil {
			return nil, err
		}
		if def.amount {
			out[name] = sq.FormatSQT(v)
		} else {
			out[name] = v.String()
		}
	}
	return out, nil
}

// Genesis is the yaml form of the initial ledger configuration. Accounts
// are hex addresses or names, balances decimal SQT.
type Genesis struct {
	Owner                string            `yaml:"owner"`
	Treasury             string            `yaml:"treasury"`
	Reporter             string            `yaml:"reporter"`
	Spender              string            `yaml:"spender"`
	LaborSource          string            `yaml:"laborSource"`
	InflationDestination string            `yaml:"inflationDestination"`
	EraPeriod            uint64            `yaml:"eraPeriod"`
	BlockInterval        uint64            `yaml:"blockInterval"` // seconds per block height, 6 when unset
	StartTime            uint64            `yaml:"startTime"`
	Params               map[string]string `yaml:"params"`
	Balances             map[string]string `yaml:"balances"`
}

// DevGenesis is used when no genesis file is given.
func DevGenesis() *Genesis {
	return &Genesis{
		Owner:       "owner",
		Treasury:    "treasury",
		Reporter:    "reporter",
		Spender:     "spender",
		LaborSource: "labor-source",
		EraPeriod:   24 * 3600,
		Balances: map[string]string{
			"owner":        "10000000",
			"labor-source": "1000000",
		},
	}
}

// LoadGenesis reads a yaml genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGenesis(data)
}

func ParseGenesis(data []byte) (*Genesis, error) {
	var g Genesis
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if g.Owner == "" {
		return nil, errors.New("genesis: owner required")
	}
	if g.EraPeriod == 0 {
		return nil, errors.New("genesis: eraPeriod required")
	}
	return &g, nil
}

// Build converts the yaml form into the builtin genesis.
func (g *Genesis) Build() (*builtin.Genesis, error) {
	out := &builtin.Genesis{
		EraPeriod: g.EraPeriod,
		Params:    make(map[sq.Bytes32]*big.Int),
		Balances:  make(map[sq.Address]*big.Int),
	}
	roles := []struct {
		name string
		dst  *sq.Address
	}{
		{g.Owner, &out.Owner},
		{g.Treasury, &out.Treasury},
		{g.Reporter, &out.Reporter},
		{g.Spender, &out.Spender},
		{g.LaborSource, &out.LaborSource},
		{g.InflationDestination, &out.InflationDestination},
	}
	for _, r := range roles {
		if r.name == "" {
			continue
		}
		addr, err := ParseAccount(r.name)
		if err != nil {
			return nil, err
		}
		*r.dst = addr
	}
	for name, value := range g.Params {
		key, v, err := ParseParam(name, value)
		if err != nil {
			return nil, err
		}
		out.Params[key] = v
	}
	for acc, amount := range g.Balances {
		addr, err := ParseAccount(acc)
		if err != nil {
			return nil, err
		}
		v, err := sq.ParseSQT(amount)
		if err != nil {
			return nil, errors.Wrapf(err, "balance of %v", acc)
		}
		out.Balances[addr] = v
	}
	return out, nil
}
