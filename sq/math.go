// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sq

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// MulDiv returns floor(x*y/d). Operands fitting in 256 bits take the uint256 fast path.
// It returns zero if d is zero.
func MulDiv(x, y, d *big.Int) *big.Int {
	if d.Sign() == 0 {
		return new(big.Int)
	}
	if x.Sign() >= 0 && y.Sign() >= 0 && d.Sign() > 0 {
		ux, ox := uint256.FromBig(x)
		uy, oy := uint256.FromBig(y)
		ud, od := uint256.FromBig(d)
		if !ox && !oy && !od {
			if z, overflow := new(uint256.Int).MulDivOverflow(ux, uy, ud); !overflow {
				return z.ToBig()
			}
		}
	}
	z := new(big.Int).Mul(x, y)
	return z.Quo(z, d)
}

// PerMillOf returns floor(amount*rate/PerMill).
func PerMillOf(amount *big.Int, rate uint64) *big.Int {
	return MulDiv(amount, new(big.Int).SetUint64(rate), BigPerMill)
}

// Min returns the smaller of a and b.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}

// SQT converts a whole number of tokens into base units.
func SQT(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Decimals)
}

// ParseSQT parses a decimal token amount such as "1.5" into base units.
func ParseSQT(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty amount")
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 18 {
		return nil, fmt.Errorf("too many decimals in %q", s)
	}
	frac += strings.Repeat("0", 18-len(frac))
	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// FormatSQT renders base units as a decimal token amount.
func FormatSQT(v *big.Int) string {
	if v == nil {
		return "0"
	}
	q, r := new(big.Int).QuoRem(v, Decimals, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := fmt.Sprintf("%018s", new(big.Int).Abs(r).String())
	return q.String() + "." + strings.TrimRight(frac, "0")
}
