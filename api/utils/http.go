// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/subquery/network-ledger/builtin/reverts"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError create an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

// BadRequest convenience method to create http bad request error.
func BadRequest(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusBadRequest,
	}
}

// Forbidden convenience method to create http forbidden error.
func Forbidden(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusForbidden,
	}
}

// NotFound convenience method to create http not found error.
func NotFound(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusNotFound,
	}
}

// permission codes answer 403, every other revert 400.
var forbiddenCodes = map[string]bool{
	"G001":  true,
	"G002":  true,
	"G019":  true,
	"RB001": true,
	"RB003": true,
	"RP001": true,
	"SA02":  true,
}

// CommandError maps a command failure onto an http error. Reverts carry
// their code in the body.
func CommandError(err error) error {
	var revert *reverts.ErrRevert
	if !errors.As(err, &revert) {
		return err
	}
	status := http.StatusBadRequest
	if forbiddenCodes[revert.Code()] {
		status = http.StatusForbidden
	}
	return &httpError{cause: revert, status: status}
}

// HandlerFunc like http.HandlerFunc, bu it returns an error.
// If the returned error is httpError type, httpError.status will be responded,
// otherwise http.StatusInternalServerError responded.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		if !errors.As(err, &he) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var revert *reverts.ErrRevert
		if errors.As(he.cause, &revert) {
			w.Header().Set("Content-Type", JSONContentType)
			w.WriteHeader(he.status)
			_ = json.NewEncoder(w).Encode(M{"code": revert.Code(), "message": revert.Message()})
			return
		}
		if he.cause != nil {
			http.Error(w, he.cause.Error(), he.status)
		} else {
			w.WriteHeader(he.status)
		}
	}
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// M shortcut for type map[string]any.
type M map[string]any
