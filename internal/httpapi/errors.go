package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/dwikikusuma/freshcart/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func grpcCode(err error) codes.Code {
	if k := apperr.KindOf(err); k != apperr.KindUnknown {
		return apperr.GRPCCode(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Internal
}

// httpStatusFromGRPC maps an error to an HTTP status, a stable error code
// and a client-safe message.
func httpStatusFromGRPC(err error) (int, string, string) {
	code := grpcCode(err)

	msg := apperr.Message(err)
	if msg == "" {
		if st, ok := status.FromError(err); ok {
			msg = st.Message()
		}
	}

	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "INVALID_ARGUMENT", msg
	case codes.NotFound:
		return http.StatusNotFound, "NOT_FOUND", msg
	case codes.FailedPrecondition:
		return http.StatusConflict, "FAILED_PRECONDITION", msg
	case codes.AlreadyExists:
		return http.StatusConflict, "ALREADY_EXISTS", msg
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "UNAUTHENTICATED", msg
	case codes.PermissionDenied:
		return http.StatusForbidden, "PERMISSION_DENIED", msg
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusServiceUnavailable, "UNAVAILABLE", "service unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, fallback *slog.Logger, err error) {
	httpStatus, code, msg := httpStatusFromGRPC(err)
	if httpStatus >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), fallback).Error("request failed", slog.Any("err", err))
	}
	writeJSON(w, httpStatus, errorBody{Code: code, Message: msg})
}

var errBadJSON = apperr.Validation("invalid JSON body")

// decodeJSON reads a JSON body into v. An empty body is accepted only when
// optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		return errBadJSON
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
