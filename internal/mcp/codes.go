package mcp

import (
	"github.com/churchatlas/churchatlas/internal/apperrors"

	"github.com/rs/zerolog/log"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeForbidden      = -32003
	CodeNotFound       = -32004
	CodeConflict       = -32009
)

// translateError is the single boundary between domain errors and the
// wire. Anything without a known kind is logged in full and surfaced
// as a generic internal error.
func translateError(err error) *ErrorObject {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return &ErrorObject{Code: CodeInvalidParams, Message: err.Error()}
	case apperrors.KindForbidden, apperrors.KindWriteForbidden:
		return &ErrorObject{Code: CodeForbidden, Message: err.Error()}
	case apperrors.KindNotFound, apperrors.KindWriteNotFound:
		return &ErrorObject{Code: CodeNotFound, Message: err.Error()}
	case apperrors.KindConflict:
		return &ErrorObject{
			Code:    CodeConflict,
			Message: err.Error(),
			Data:    map[string]any{"conflict": true},
		}
	default:
		log.Error().Err(err).Msg("Unexpected error in RPC handler")
		return &ErrorObject{Code: CodeInternalError, Message: "internal error"}
	}
}

// IsConflict reports whether a response carries the concurrency
// conflict marker; the controller maps it onto HTTP 409.
func (r *Response) IsConflict() bool {
	if r.Error == nil {
		return false
	}
	return r.Error.Code == CodeConflict
}
