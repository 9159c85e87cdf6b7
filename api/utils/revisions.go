// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/chain"
	"github.com/meridianchain/meridian/meridian"
)

const revBest = "best"

const rootPrefix = "root:"

// Revision selects a state root: through a block, by height or hash, or
// directly.
type Revision struct {
	val any
}

type rawRoot meridian.Bytes32

// ParseRevision parses "best", a block height, a block hash or "root:<hex>".
// An empty revision is best.
func ParseRevision(revision string) (*Revision, error) {
	if revision == "" || revision == revBest {
		return &Revision{revBest}, nil
	}
	if rest, ok := strings.CutPrefix(revision, rootPrefix); ok {
		root, err := meridian.ParseBytes32(rest)
		if err != nil {
			return nil, err
		}
		return &Revision{rawRoot(root)}, nil
	}
	if len(revision) == 66 || len(revision) == 64 {
		hash, err := meridian.ParseBytes32(revision)
		if err != nil {
			return nil, err
		}
		return &Revision{hash}, nil
	}
	n, err := strconv.ParseUint(revision, 0, 64)
	if err != nil {
		return nil, err
	}
	return &Revision{n}, nil
}

// GetBlock returns the block of the revision. It returns nil for a raw
// state root revision.
func GetBlock(rev *Revision, repo *chain.Repository) (*block.Block, error) {
	switch rev := rev.val.(type) {
	case string:
		return repo.BestBlock(), nil
	case uint64:
		return repo.GetBlockByHeight(rev)
	case meridian.Bytes32:
		return repo.GetBlock(rev)
	}
	return nil, nil
}

// GetStateRoot returns the state root of the revision.
func GetStateRoot(rev *Revision, repo *chain.Repository) (meridian.Bytes32, error) {
	if root, ok := rev.val.(rawRoot); ok {
		return meridian.Bytes32(root), nil
	}
	blk, err := GetBlock(rev, repo)
	if err != nil {
		if repo.IsNotFound(err) {
			return meridian.Bytes32{}, NotFound(errors.New("block not found"))
		}
		return meridian.Bytes32{}, err
	}
	return blk.Header().StateRootHash(), nil
}
