// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// TransformKind is the kind of a transform.
type TransformKind uint8

// Transform kinds.
const (
	KindIdentity TransformKind = iota
	KindWrite
	KindAddInt64
	KindAddUint64
	KindAddUint256
	KindAddUint512
	KindAddKeys
	KindPrune
	KindFailure
)

var transformKindNames = []string{
	"Identity", "Write", "AddInt64", "AddUint64", "AddUint256", "AddUint512", "AddKeys", "Prune", "Failure",
}

func (k TransformKind) String() string {
	if int(k) < len(transformKindNames) {
		return transformKindNames[k]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

// IsAdd returns whether the kind is one of the add kinds.
func (k TransformKind) IsAdd() bool {
	return k >= KindAddInt64 && k <= KindAddKeys
}

// Transform is a change to the value under a key.
// The zero value is the identity transform.
type Transform struct {
	kind      TransformKind
	value     StoredValue // Write
	i64       int64
	u64       uint64
	u256      *uint256.Int
	u512      *big.Int
	namedKeys NamedKeys
	err       string // Failure
}

// Identity returns the transform that reads without changing.
func Identity() Transform { return Transform{} }

// Write returns the transform writing v.
func Write(v StoredValue) Transform { return Transform{kind: KindWrite, value: v} }

// AddInt64 returns the transform adding n to an I64 value.
func AddInt64(n int64) Transform { return Transform{kind: KindAddInt64, i64: n} }

// AddUint64 returns the transform adding n to a U64 value.
func AddUint64(n uint64) Transform { return Transform{kind: KindAddUint64, u64: n} }

// AddUint256 returns the transform adding n to a U256 value.
func AddUint256(n *uint256.Int) Transform {
	return Transform{kind: KindAddUint256, u256: new(uint256.Int).Set(n)}
}

// AddUint512 returns the transform adding n to a U512 value.
func AddUint512(n *big.Int) Transform {
	return Transform{kind: KindAddUint512, u512: new(big.Int).Set(n)}
}

// AddKeys returns the transform merging named keys into an account or contract.
func AddKeys(keys NamedKeys) Transform {
	return Transform{kind: KindAddKeys, namedKeys: keys}
}

// Prune returns the transform deleting the value.
func Prune() Transform { return Transform{kind: KindPrune} }

// Failure returns the transform that fails with err.
func Failure(err error) Transform { return Transform{kind: KindFailure, err: err.Error()} }

// Kind returns the kind of the transform.
func (t Transform) Kind() TransformKind { return t.kind }

// Value returns the written value of a Write transform.
func (t Transform) Value() StoredValue { return t.value }

// Err returns the error of a Failure transform.
func (t Transform) Err() error {
	if t.kind != KindFailure {
		return nil
	}
	return errors.New(t.err)
}

func (t Transform) String() string {
	switch t.kind {
	case KindWrite:
		return fmt.Sprintf("Write(%v)", t.value.Tag())
	case KindAddInt64:
		return fmt.Sprintf("AddInt64(%d)", t.i64)
	case KindAddUint64:
		return fmt.Sprintf("AddUint64(%d)", t.u64)
	case KindAddUint256:
		return fmt.Sprintf("AddUint256(%v)", t.u256.Dec())
	case KindAddUint512:
		return fmt.Sprintf("AddUint512(%v)", t.u512)
	case KindAddKeys:
		return fmt.Sprintf("AddKeys(%d)", len(t.namedKeys))
	case KindFailure:
		return fmt.Sprintf("Failure(%s)", t.err)
	default:
		return t.kind.String()
	}
}

// Apply applies the transform to the value currently stored under a key.
// found is false when the key holds no value. The returned bool tells
// whether a value is present afterwards. The input value is not modified.
func (t Transform) Apply(value StoredValue, found bool) (StoredValue, bool, error) {
	switch t.kind {
	case KindIdentity:
		return value, found, nil
	case KindWrite:
		return t.value, true, nil
	case KindPrune:
		return nil, false, nil
	case KindFailure:
		return nil, false, t.Err()
	}

	if !found {
		return nil, false, errors.Errorf("%v: no value to add to", t.kind)
	}
	if t.kind == KindAddKeys {
		switch v := value.(type) {
		case *Account:
			cpy := *v
			cpy.NamedKeys = v.NamedKeys.Merge(t.namedKeys)
			return &cpy, true, nil
		case *Contract:
			cpy := *v
			cpy.NamedKeys = v.NamedKeys.Merge(t.namedKeys)
			return &cpy, true, nil
		default:
			return nil, false, &TypeMismatchError{Expected: "Account or Contract", Found: value.Tag().String()}
		}
	}

	cl, ok := value.(*CLValue)
	if !ok {
		return nil, false, &TypeMismatchError{Expected: "CLValue", Found: value.Tag().String()}
	}
	switch t.kind {
	case KindAddInt64:
		v, err := cl.I64()
		if err != nil {
			return nil, false, err
		}
		return NewCLI64(v + t.i64), true, nil
	case KindAddUint64:
		v, err := cl.U64()
		if err != nil {
			return nil, false, err
		}
		return NewCLU64(v + t.u64), true, nil
	case KindAddUint256:
		v, err := cl.U256()
		if err != nil {
			return nil, false, err
		}
		if _, overflow := v.AddOverflow(v, t.u256); overflow {
			return nil, false, ErrOverflow
		}
		return NewCLU256(v), true, nil
	case KindAddUint512:
		v, err := cl.U512()
		if err != nil {
			return nil, false, err
		}
		v.Add(v, t.u512)
		if v.Cmp(u512Max) > 0 {
			return nil, false, ErrOverflow
		}
		return NewCLU512(v), true, nil
	}
	return nil, false, errors.Errorf("unexpected transform kind %v", t.kind)
}

// Compose returns the transform equivalent to applying first then second.
func Compose(first, second Transform) Transform {
	switch second.kind {
	case KindIdentity:
		return first
	case KindWrite, KindPrune, KindFailure:
		return second
	}

	// second is an add
	switch {
	case first.kind == KindIdentity:
		return second
	case first.kind == KindFailure:
		return first
	case first.kind == KindWrite:
		v, _, err := second.Apply(first.value, true)
		if err != nil {
			return Failure(err)
		}
		return Write(v)
	case first.kind == KindPrune:
		return Failure(errors.Errorf("%v after Prune", second.kind))
	case first.kind != second.kind:
		return Failure(&TypeMismatchError{Expected: first.kind.String(), Found: second.kind.String()})
	}

	switch second.kind {
	case KindAddInt64:
		return AddInt64(first.i64 + second.i64)
	case KindAddUint64:
		return AddUint64(first.u64 + second.u64)
	case KindAddUint256:
		sum, overflow := new(uint256.Int).AddOverflow(first.u256, second.u256)
		if overflow {
			return Failure(ErrOverflow)
		}
		return AddUint256(sum)
	case KindAddUint512:
		sum := new(big.Int).Add(first.u512, second.u512)
		if sum.Cmp(u512Max) > 0 {
			return Failure(ErrOverflow)
		}
		return AddUint512(sum)
	default: // KindAddKeys
		return AddKeys(first.namedKeys.Merge(second.namedKeys))
	}
}
