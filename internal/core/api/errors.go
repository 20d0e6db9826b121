// internal/core/api/errors.go
package api

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/factkeeper/internal/types"
)

// Validation errors map to INVALID_ARGUMENT.
// Lookup misses map to NOT_FOUND.
// Database connection errors map to UNAVAILABLE.
// Context timeouts map to DEADLINE_EXCEEDED.
var invalidArgument = []error{
	types.ErrInvalidFormat,
	types.ErrInvalidFactName,
	types.ErrDuplicateFactName,
	types.ErrInvalidFactType,
	types.ErrInvalidDefaultValue,
	types.ErrEmptyRuleName,
	types.ErrEmptyEventType,
	types.ErrNegativePriority,
	types.ErrUnknownFact,
	types.ErrUnknownOperator,
	types.ErrUnknownNodeKind,
	types.ErrMissingConditions,
	types.ErrInvalidPath,
	types.ErrPathTooDeep,
	types.ErrTooManyWildcards,
	types.ErrCoercionFailed,
}

// toStatus converts a domain error into a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, types.ErrFactNotFound),
		errors.Is(err, types.ErrRuleNotFound),
		errors.Is(err, types.ErrNoDocument),
		errors.Is(err, types.ErrFieldNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrFactInUse):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return status.Error(codes.Unavailable, err.Error())
	}
	for _, sentinel := range invalidArgument {
		if errors.Is(err, sentinel) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}
