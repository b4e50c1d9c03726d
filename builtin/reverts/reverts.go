// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// ErrRevert is a business rule violation. A command failing with it leaves
// no trace in state.
type ErrRevert struct {
	code    string
	message string
}

// New creates a revert error with a stable code such as "RD007".
func New(code, message string) *ErrRevert {
	return &ErrRevert{code: code, message: message}
}

// Newf is New with a formatted message.
func Newf(code, format string, args ...any) *ErrRevert {
	return New(code, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.code + ": " + e.message
}

func (e *ErrRevert) Code() string { return e.code }

func (e *ErrRevert) Message() string { return e.message }

// Is matches another revert with the same code, so sentinel values work
// with errors.Is.
func (e *ErrRevert) Is(target error) bool {
	var t *ErrRevert
	if errors.As(target, &t) {
		return t.code == e.code
	}
	return false
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Code returns the revert code carried by err, or "" if err is not a revert.
func Code(err error) string {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.code
	}
	return ""
}
