// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrRootNotFound is returned when a state root is unknown to the store.
var ErrRootNotFound = errors.New("root not found")

// ErrOverflow is returned when a U256 or U512 add does not fit.
var ErrOverflow = errors.New("arithmetic overflow")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// TypeMismatchError is returned when a transform or query meets a value of
// an unexpected type.
type TypeMismatchError struct {
	Expected string
	Found    string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
}
