package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/store"
	"github.com/signalsfoundry/indoor-coverage-sim/kb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatusError(t *testing.T) {
	t.Parallel()

	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name    string
		err     error
		code    codes.Code
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "status passthrough", err: status.Error(codes.PermissionDenied, "denied"), code: codes.PermissionDenied},
		{name: "invalid request", err: fmt.Errorf("%w: missing id", ErrInvalidRequest), code: codes.InvalidArgument},
		{name: "invalid configuration", err: fmt.Errorf("%w: no access points", core.ErrInvalidConfiguration), code: codes.InvalidArgument},
		{name: "category table", err: core.ErrCategoryConfiguration, code: codes.InvalidArgument},
		{name: "unknown material", err: core.ErrUnknownMaterial, code: codes.InvalidArgument},
		{name: "duplicate access point", err: core.ErrAccessPointExists, code: codes.InvalidArgument},
		{name: "store argument", err: store.ErrInvalidArgument, code: codes.InvalidArgument},
		{name: "deployment not found", err: fmt.Errorf("%w: %q", kb.ErrDeploymentNotFound, "x"), code: codes.NotFound},
		{name: "evaluation not found", err: store.ErrNotFound, code: codes.NotFound},
		{name: "canceled", err: context.Canceled, code: codes.Canceled},
		{name: "deadline", err: fmt.Errorf("evaluate: %w", context.DeadlineExceeded), code: codes.DeadlineExceeded},
		{name: "redis down", err: fmt.Errorf("failed to get evaluation from Redis: %w", refused), code: codes.Unavailable},
		{name: "fallback", err: errors.New("boom"), code: codes.Internal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ToStatusError(tc.err)
			if tc.wantNil {
				if got != nil {
					t.Fatalf("ToStatusError(nil) = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("ToStatusError(%v) = nil, want error", tc.err)
			}
			if code := status.Code(got); code != tc.code {
				t.Fatalf("ToStatusError(%v) code = %v, want %v", tc.err, code, tc.code)
			}
		})
	}
}
