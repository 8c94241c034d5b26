package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/middleware"
)

var codes = map[ledger.Kind]connect.Code{
	ledger.KindNotFound:            connect.CodeNotFound,
	ledger.KindInsufficientFunds:   connect.CodeFailedPrecondition,
	ledger.KindBelowMinimumBalance: connect.CodeFailedPrecondition,
	ledger.KindAlreadyProcessed:    connect.CodeFailedPrecondition,
	ledger.KindSplitLinked:         connect.CodeFailedPrecondition,
	ledger.KindInvalidParticipants: connect.CodeInvalidArgument,
	ledger.KindInvalidInput:        connect.CodeInvalidArgument,
	ledger.KindForbidden:           connect.CodePermissionDenied,
	ledger.KindInconsistent:        connect.CodeDataLoss,
}

// toConnectError maps a domain error to a Connect error carrying its kind in
// the Fintrack-Error-Kind header. Errors without a kind become Internal.
func toConnectError(op string, err error) error {
	kind := ledger.KindOf(err)
	code, ok := codes[kind]
	if !ok {
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}

	cerr := connect.NewError(code, err)
	cerr.Meta().Set(middleware.ErrorKindHeader, string(kind))
	return cerr
}

func invalidArgument(err error) error {
	cerr := connect.NewError(connect.CodeInvalidArgument, err)
	cerr.Meta().Set(middleware.ErrorKindHeader, string(ledger.KindInvalidInput))
	return cerr
}

// callerID returns the authenticated user, or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}
