// Package ipc maps transport failures from the gRPC sidecar bridge into the
// application's error taxonomy.
package ipc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"agentdesk/internal/apperr"
)

// ClassifyGRPC converts a gRPC call error into a classified error. Non-gRPC
// failures fall through to the generic normalization rules.
func ClassifyGRPC(err error) *apperr.Error {
	if err == nil {
		return nil
	}

	var ce *apperr.Error
	if errors.As(err, &ce) {
		return ce
	}

	st, ok := status.FromError(err)
	if !ok {
		return apperr.Normalize(err)
	}

	classified := apperr.Wrap(kindForCode(st.Code()), st.Message(), err).
		WithDetail("grpc_code", st.Code().String())

	return classified
}

func kindForCode(code codes.Code) apperr.Kind {
	switch code {
	case codes.NotFound:
		return apperr.ProviderNotFound
	case codes.Unauthenticated, codes.PermissionDenied:
		return apperr.ProviderAuthFailed
	case codes.ResourceExhausted:
		return apperr.ProviderRateLimited
	case codes.Unavailable:
		return apperr.ProviderUnavailable
	case codes.DeadlineExceeded:
		return apperr.TimeoutError
	case codes.Canceled:
		return apperr.TaskCancelled
	case codes.InvalidArgument:
		return apperr.ValidationError
	case codes.FailedPrecondition:
		return apperr.ProviderInvalidConfig
	case codes.Internal, codes.Unknown:
		return apperr.InternalError
	default:
		return apperr.ProviderRequestFailed
	}
}
