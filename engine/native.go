// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

// ErrNoVM is the failure of deploys carrying module bytes.
var ErrNoVM = errors.New("no VM available")

// NativeExecutor executes transfers and native op sessions.
// The cost is paid from the sender's main purse to the proposer's main
// purse before the session runs, and stays paid when the session fails.
type NativeExecutor struct {
	config Config
}

// NewNativeExecutor creates a native executor.
func NewNativeExecutor(config Config) *NativeExecutor {
	return &NativeExecutor{config: config}
}

// Cost returns the cost of the deploy.
func (x *NativeExecutor) Cost(deploy *block.Deploy) *big.Int {
	var gas uint64
	session := deploy.Session()
	switch session.Kind {
	case block.SessionTransfer:
		gas = x.config.TransferCost
	case block.SessionNativeOps:
		gas = x.config.NativeOpCost * uint64(max(len(session.Ops), 1))
	default:
		gas = x.config.NativeOpCost
	}
	cost := new(big.Int).SetUint64(gas)
	return cost.Mul(cost, new(big.Int).SetUint64(deploy.Header().GasPrice))
}

// Exec implements Executor.
func (x *NativeExecutor) Exec(env *Env, tc *trackingcopy.TrackingCopy, deploy *block.Deploy) (*ExecutionResult, error) {
	result := &ExecutionResult{Cost: new(big.Int)}
	fail := func(err error) (*ExecutionResult, error) {
		result.Outcome = Failure
		result.ErrorMessage = err.Error()
		result.Effects = tc.Effects()
		return result, nil
	}

	if err := deploy.Validate(); err != nil {
		return fail(errors.WithMessage(err, "invalid deploy"))
	}
	sender := deploy.Account().AccountHash()
	senderPurse, err := tc.GetMainPurse(sender)
	if err != nil {
		if isNotFound(err) {
			return fail(errors.New("sender account not found"))
		}
		return nil, err
	}

	cost := x.Cost(deploy)
	if err := x.pay(env, tc, senderPurse, cost); err != nil {
		if isNotFound(err) || errors.Is(err, errInsufficientFunds) {
			return fail(err)
		}
		return nil, err
	}
	result.Cost = cost

	checkpoint := tc.NewCheckpoint()
	transfers, err := x.runSession(tc, deploy, senderPurse, cost)
	if err != nil {
		tc.RevertTo(checkpoint)
		return fail(err)
	}
	result.Outcome = Success
	result.Transfers = transfers
	result.Effects = tc.Effects()
	return result, nil
}

var errInsufficientFunds = errors.New("insufficient funds")

func isNotFound(err error) bool {
	var notFound *trackingcopy.ValueNotFoundError
	return errors.As(err, &notFound)
}

// debit takes amount from the purse.
func debit(tc *trackingcopy.TrackingCopy, purse meridian.Bytes32, amount *big.Int) error {
	balance, err := tc.GetPurseBalance(purse)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return errors.WithMessagef(errInsufficientFunds, "balance %v, need %v", balance, amount)
	}
	return tc.Write(state.BalanceKey(purse), state.NewCLU512(new(big.Int).Sub(balance, amount)))
}

// mainPurseOrCreate returns the main purse of the account, creating the account if missing.
func mainPurseOrCreate(tc *trackingcopy.TrackingCopy, accountHash meridian.Bytes32) (meridian.Bytes32, error) {
	purse, err := tc.GetMainPurse(accountHash)
	if err == nil {
		return purse, nil
	}
	if !isNotFound(err) {
		return meridian.Bytes32{}, err
	}
	acc, err := tc.CreateAccount(accountHash, nil)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	return acc.MainPurse, nil
}

func (x *NativeExecutor) pay(env *Env, tc *trackingcopy.TrackingCopy, senderPurse meridian.Bytes32, cost *big.Int) error {
	if cost.Sign() == 0 {
		return nil
	}
	if err := debit(tc, senderPurse, cost); err != nil {
		return err
	}
	proposerPurse, err := mainPurseOrCreate(tc, env.Proposer.AccountHash())
	if err != nil {
		return err
	}
	return tc.Add(state.BalanceKey(proposerPurse), state.AddUint512(cost))
}

func (x *NativeExecutor) runSession(tc *trackingcopy.TrackingCopy, deploy *block.Deploy, senderPurse meridian.Bytes32, cost *big.Int) ([]meridian.Bytes32, error) {
	session := deploy.Session()
	switch session.Kind {
	case block.SessionTransfer:
		addr, err := x.transfer(tc, deploy, senderPurse, cost)
		if err != nil {
			return nil, err
		}
		return []meridian.Bytes32{addr}, nil
	case block.SessionNativeOps:
		for i := range session.Ops {
			op := &session.Ops[i]
			tr, err := op.Transform()
			if err != nil {
				return nil, errors.WithMessagef(err, "op %d", i)
			}
			if err := tc.Add(op.Key, tr); err != nil {
				return nil, errors.WithMessagef(err, "op %d", i)
			}
		}
		return nil, nil
	case block.SessionModuleBytes:
		return nil, ErrNoVM
	}
	return nil, errors.Errorf("unsupported session %v", session.Kind)
}

func (x *NativeExecutor) transfer(tc *trackingcopy.TrackingCopy, deploy *block.Deploy, senderPurse meridian.Bytes32, cost *big.Int) (meridian.Bytes32, error) {
	args := deploy.Session().Transfer
	if err := debit(tc, senderPurse, args.Amount); err != nil {
		return meridian.Bytes32{}, err
	}
	targetPurse, err := mainPurseOrCreate(tc, args.Target)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if err := tc.Add(state.BalanceKey(targetPurse), state.AddUint512(args.Amount)); err != nil {
		return meridian.Bytes32{}, err
	}

	hash := deploy.Hash()
	addr := meridian.Blake2b(hash[:], []byte("transfer"))
	from := deploy.Account().AccountHash()
	if err := tc.Write(state.TransferKey(addr), &state.Transfer{
		DeployHash: hash,
		From:       from,
		To:         args.Target,
		Source:     senderPurse,
		Target:     targetPurse,
		Amount:     new(big.Int).Set(args.Amount),
		Gas:        new(big.Int).Set(cost),
		ID:         args.ID,
	}); err != nil {
		return meridian.Bytes32{}, err
	}
	if err := tc.Write(state.DeployInfoKey(hash), &state.DeployInfo{
		DeployHash: hash,
		Transfers:  []meridian.Bytes32{addr},
		From:       from,
		Source:     senderPurse,
		Gas:        new(big.Int).Set(cost),
	}); err != nil {
		return meridian.Bytes32{}, err
	}
	return addr, nil
}
