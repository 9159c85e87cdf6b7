// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package states

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/api/utils"
	"github.com/meridianchain/meridian/chain"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

// States serves read-only queries of global state.
type States struct {
	repo              *chain.Repository
	eng               *engine.EngineState
	allowGetAllValues bool
	allowGetTrie      bool
}

func New(repo *chain.Repository, eng *engine.EngineState, allowGetAllValues, allowGetTrie bool) *States {
	return &States{
		repo,
		eng,
		allowGetAllValues,
		allowGetTrie,
	}
}

// convertError maps engine errors to api errors.
func convertError(err error) error {
	var (
		notFound  *trackingcopy.ValueNotFoundError
		depth     *trackingcopy.QueryDepthError
		mismatch  *state.TypeMismatchError
		requestTC *trackingcopy.Error
	)
	switch {
	case errors.Is(err, state.ErrRootNotFound):
		return utils.RootNotFound(err)
	case errors.As(err, &notFound), errors.Is(err, engine.ErrPurseNotFound):
		return utils.NotFound(err)
	case errors.As(err, &depth), errors.As(err, &mismatch), errors.As(err, &requestTC):
		return utils.BadRequest(err)
	}
	return err
}

func (s *States) stateRoot(req *http.Request) (meridian.Bytes32, error) {
	revision, err := utils.ParseRevision(mux.Vars(req)["revision"])
	if err != nil {
		return meridian.Bytes32{}, utils.BadRequest(errors.WithMessage(err, "revision"))
	}
	return utils.GetStateRoot(revision, s.repo)
}

func (s *States) handleGetItem(w http.ResponseWriter, req *http.Request) error {
	key, err := state.ParseKey(mux.Vars(req)["key"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "key"))
	}
	var path []string
	if p := strings.Trim(req.URL.Query().Get("path"), "/"); p != "" {
		path = strings.Split(p, "/")
	}
	root, err := s.stateRoot(req)
	if err != nil {
		return err
	}

	result, err := s.eng.Query(root, key, path)
	if err != nil {
		return convertError(err)
	}
	value, err := convertValue(result.Value)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &QueryResult{
		Value:  value,
		Proofs: convertProofs(result.Proofs),
	})
}

func (s *States) handleGetTagged(w http.ResponseWriter, req *http.Request) error {
	if !s.allowGetAllValues {
		return utils.Forbidden(errors.New("get all values is disabled"))
	}
	tag, err := state.ParseKeyTag(mux.Vars(req)["tag"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "tag"))
	}
	root, err := s.stateRoot(req)
	if err != nil {
		return err
	}

	values, err := s.eng.TaggedValues(root, tag)
	if err != nil {
		return convertError(err)
	}
	jvs, err := convertValues(values)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, jvs)
}

func (s *States) handleGetPrefixed(w http.ResponseWriter, req *http.Request) error {
	raw := mux.Vars(req)["prefix"]
	if !strings.HasPrefix(raw, "0x") {
		raw = "0x" + raw
	}
	prefix, err := hexutil.Decode(raw)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "prefix"))
	}
	root, err := s.stateRoot(req)
	if err != nil {
		return err
	}

	values, err := s.eng.PrefixedValues(root, prefix)
	if err != nil {
		return convertError(err)
	}
	jvs, err := convertValues(values)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, jvs)
}

func (s *States) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	id, err := engine.ParsePurseIdentifier(mux.Vars(req)["purse"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "purse"))
	}
	root, err := s.stateRoot(req)
	if err != nil {
		return err
	}

	result, err := s.eng.Balance(root, id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Balance{
		Purse:   state.URefKey(result.Purse),
		Balance: result.Balance.String(),
		Proofs:  convertProofs(result.Proofs),
	})
}

func (s *States) handleGetTrie(w http.ResponseWriter, req *http.Request) error {
	if !s.allowGetTrie {
		return utils.Forbidden(errors.New("get trie is disabled"))
	}
	digest, err := meridian.ParseBytes32(mux.Vars(req)["digest"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "digest"))
	}

	node, err := s.eng.Trie(digest)
	if err != nil {
		return err
	}
	if node == nil {
		return utils.NotFound(errors.New("trie node not found"))
	}
	return utils.WriteJSON(w, &TrieNode{Digest: digest, Node: node})
}

func (s *States) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{revision}/items/{key}").
		Methods(http.MethodGet).
		Name("state_get_item").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetItem))
	sub.Path("/{revision}/tags/{tag}").
		Methods(http.MethodGet).
		Name("state_get_tagged").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTagged))
	sub.Path("/{revision}/prefix/{prefix}").
		Methods(http.MethodGet).
		Name("state_get_prefixed").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPrefixed))
	sub.Path("/{revision}/balance/{purse}").
		Methods(http.MethodGet).
		Name("state_get_balance").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetBalance))
}

// MountTrie mounts the raw trie node lookup.
func (s *States) MountTrie(root *mux.Router, pathPrefix string) {
	root.Path(pathPrefix + "/{digest}").
		Methods(http.MethodGet).
		Name("trie_get_node").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTrie))
}
