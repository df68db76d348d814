package api

import (
	"context"
	"errors"
	"net"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/store"
	"github.com/signalsfoundry/indoor-coverage-sim/kb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrInvalidRequest marks malformed request payloads.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps engine, knowledge-base and store errors onto gRPC
// status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, kb.ErrDeploymentNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, core.ErrAccessPointMiss):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, store.ErrInvalidArgument),
		errors.Is(err, core.ErrInvalidConfiguration),
		errors.Is(err, core.ErrCategoryConfiguration),
		errors.Is(err, core.ErrUnknownMaterial),
		errors.Is(err, core.ErrInvalidMaterial),
		errors.Is(err, core.ErrMaterialExists),
		errors.Is(err, core.ErrAccessPointExists):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	case errors.As(err, &netErr):
		return status.Error(codes.Unavailable, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
