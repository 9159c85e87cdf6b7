// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contractruntime

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMoreThanOneExecutionResult is returned when executing one deploy yields
// more than one result.
var ErrMoreThanOneExecutionResult = errors.New("more than one execution result")

// Stage of the block execution.
type Stage string

const (
	StageValidate Stage = "validate"
	StageExecute  Stage = "execute"
	StageCommit   Stage = "commit"
	StageStep     Stage = "step"
	StageFlush    Stage = "flush"
	StagePurge    Stage = "purge"
	StageAssemble Stage = "assemble"
)

// BlockExecutionError is a failure of executing a block. Nothing of the
// block has been written when the stage is before flush.
type BlockExecutionError struct {
	Stage Stage
	Err   error
}

func (e *BlockExecutionError) Error() string {
	return fmt.Sprintf("block execution failed at %s: %v", e.Stage, e.Err)
}

func (e *BlockExecutionError) Unwrap() error { return e.Err }

// WrongBlockHeightError is returned when the block does not follow the pre-state.
type WrongBlockHeightError struct {
	Expected uint64
	Got      uint64
}

func (e *WrongBlockHeightError) Error() string {
	return fmt.Sprintf("wrong block height: expected %d, got %d", e.Expected, e.Got)
}
