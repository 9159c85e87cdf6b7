// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/log"
)

var logger = log.WithContext("pkg", "api")

// ErrorCode is the machine readable code of a failed request.
type ErrorCode string

const (
	CodeRootNotFound     ErrorCode = "RootNotFound"
	CodeNotFound         ErrorCode = "NotFound"
	CodeFailedQuery      ErrorCode = "FailedQuery"
	CodeInternalError    ErrorCode = "InternalError"
	CodeFunctionDisabled ErrorCode = "FunctionDisabled"
)

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type httpError struct {
	code   ErrorCode
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

func (e *httpError) Unwrap() error { return e.cause }

// RootNotFound creates an error for a state root missing from global state.
func RootNotFound(cause error) error {
	return &httpError{CodeRootNotFound, cause, http.StatusNotFound}
}

// NotFound creates an error for a missing value, purse or block.
func NotFound(cause error) error {
	return &httpError{CodeNotFound, cause, http.StatusNotFound}
}

// BadRequest creates an error for a query that cannot be served as asked.
func BadRequest(cause error) error {
	return &httpError{CodeFailedQuery, cause, http.StatusBadRequest}
}

// Forbidden creates an error for a function disabled by configuration.
func Forbidden(cause error) error {
	return &httpError{CodeFunctionDisabled, cause, http.StatusForbidden}
}

// HandlerFunc like http.HandlerFunc, but it returns an error.
// If the returned error is created by this package, its code and status are
// responded, otherwise InternalError with http.StatusInternalServerError.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc converts HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		if !errors.As(err, &he) {
			logger.Debug("internal error", "uri", r.URL.String(), "err", err)
			he = &httpError{CodeInternalError, err, http.StatusInternalServerError}
		}
		writeError(w, he)
	}
}

func writeError(w http.ResponseWriter, he *httpError) {
	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(he.status)
	json.NewEncoder(w).Encode(&ErrorResponse{Code: he.code, Message: he.cause.Error()})
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// WriteJSON responds an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}
