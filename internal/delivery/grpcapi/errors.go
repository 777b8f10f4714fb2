package grpcapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "escrow.shvark"

// ToGRPCStatus maps engine errors onto gRPC status codes. Structured errors
// carry an ErrorInfo detail with the error kind as reason.
func ToGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return status.Error(codes.DeadlineExceeded, err.Error())
		case errors.Is(err, context.Canceled):
			return status.Error(codes.Canceled, err.Error())
		}
		return status.Error(codes.Internal, "internal error")
	}

	st := status.New(codeFor(de), de.Error())
	metadata := make(map[string]string, len(de.Context)+2)
	for k, v := range de.Context {
		metadata[k] = v
	}
	if de.OrderID != "" {
		metadata["order_id"] = de.OrderID
	}
	metadata["retryable"] = strconv.FormatBool(de.Retryable)

	withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(de.Kind),
		Domain:   errorDomain,
		Metadata: metadata,
	})
	if detailErr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

func codeFor(e *domain.Error) codes.Code {
	switch e.Kind {
	case domain.KindInvalidInput:
		return codes.InvalidArgument
	case domain.KindUnknownOrder:
		return codes.NotFound
	case domain.KindUnauthorizedBank:
		return codes.PermissionDenied
	case domain.KindIllegalTransition, domain.KindOrderFrozen, domain.KindTotalLocked:
		return codes.FailedPrecondition
	case domain.KindReleaseFailed:
		if e.Retryable {
			return codes.Unavailable
		}
		return codes.FailedPrecondition
	default:
		return codes.Unknown
	}
}

// ErrorKindFromStatus returns the engine error kind carried by a gRPC error.
func ErrorKindFromStatus(err error) (domain.ErrorKind, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			return domain.ErrorKind(info.GetReason()), true
		}
	}
	return "", false
}
