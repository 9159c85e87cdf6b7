// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trackingcopy

import (
	"fmt"
	"strings"

	"github.com/meridianchain/meridian/state"
)

// Error is the error caused by an invalid request to the tracking copy.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("trackingcopy: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// TypeMismatchError is returned when a value has an unexpected type.
type TypeMismatchError = state.TypeMismatchError

// ValueNotFoundError is returned when a query reaches a missing value
// or an invalid path.
type ValueNotFoundError struct {
	Key  state.Key
	Path []string
	Msg  string
}

func (e *ValueNotFoundError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "value not found"
	}
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %v", msg, e.Key)
	}
	return fmt.Sprintf("%s: %v/%s", msg, e.Key, strings.Join(e.Path, "/"))
}

// QueryDepthError is returned when a query follows more keys than allowed.
type QueryDepthError struct {
	Depth uint64
}

func (e *QueryDepthError) Error() string {
	return fmt.Sprintf("query depth limit of %d reached", e.Depth)
}
