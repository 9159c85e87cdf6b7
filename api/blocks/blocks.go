// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/api/utils"
	"github.com/meridianchain/meridian/chain"
)

type Blocks struct {
	repo *chain.Repository
}

func New(repo *chain.Repository) *Blocks {
	return &Blocks{repo}
}

func (b *Blocks) handleGetBlock(w http.ResponseWriter, req *http.Request) error {
	revision, err := utils.ParseRevision(mux.Vars(req)["revision"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "revision"))
	}
	expanded := req.URL.Query().Get("expanded")
	if expanded != "" && expanded != "false" && expanded != "true" {
		return utils.BadRequest(errors.WithMessage(errors.New("should be boolean"), "expanded"))
	}

	blk, err := utils.GetBlock(revision, b.repo)
	if err != nil {
		if b.repo.IsNotFound(err) {
			return utils.NotFound(errors.New("block not found"))
		}
		return err
	}
	if blk == nil {
		return utils.BadRequest(errors.New("revision: state root does not select a block"))
	}

	jb := buildJSONBlock(blk)
	if expanded == "true" {
		results, err := b.repo.GetExecutionResults(blk.Hash())
		if err != nil {
			return err
		}
		jb.ExecutionResults = buildJSONDeployResults(results)
	}
	return utils.WriteJSON(w, jb)
}

func (b *Blocks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{revision}").
		Methods(http.MethodGet).
		Name("blocks_get_block").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetBlock))
}
