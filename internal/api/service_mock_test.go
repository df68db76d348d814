package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/indoor-coverage-sim/internal/store"
	storemock "github.com/signalsfoundry/indoor-coverage-sim/internal/store/mock"
)

func TestEvaluateDeploymentStoreFailures(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "redis unreachable", err: fmt.Errorf("failed to store evaluation in Redis: %w", refused), code: codes.Unavailable},
		{name: "rejected input", err: fmt.Errorf("%w: summary cannot be nil", store.ErrInvalidArgument), code: codes.InvalidArgument},
		{name: "unexpected", err: errors.New("disk on fire"), code: codes.Internal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := storemock.NewMockRepository(ctrl)
			repo.EXPECT().
				Save(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, in store.SaveInput) (*store.SaveOutput, error) {
					require.Equal(t, "office", in.DeploymentID)
					require.NotNil(t, in.Summary)
					require.Equal(t, 240, in.Summary.TotalCells)
					return nil, tc.err
				})

			env := newTestEnv(t, repo)
			env.put(t, "office", officeDoc(ap("AP1", 10, 10, 1)))

			_, err := env.client.Call(context.Background(), MethodEvaluateDeployment,
				mustStruct(t, map[string]any{"id": "office"}))
			require.Equal(t, tc.code, status.Code(err), "err = %v", err)
		})
	}
}

func TestGetEvaluationUsesRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := storemock.NewMockRepository(ctrl)
	repo.EXPECT().
		Get(gomock.Any(), store.GetInput{ID: "eval-1"}).
		Return(&store.GetOutput{Record: &store.EvaluationRecord{ID: "eval-1", DeploymentID: "office"}}, nil)

	env := newTestEnv(t, repo)
	resp, err := env.client.Call(context.Background(), MethodGetEvaluation,
		mustStruct(t, map[string]any{"id": "eval-1"}))
	require.NoError(t, err)
	require.Equal(t, "office", field(resp, "evaluation", "deployment_id").GetStringValue())
}

func TestDeleteDeploymentSurfacesStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := storemock.NewMockRepository(ctrl)
	repo.EXPECT().
		DeleteByDeployment(gomock.Any(), store.DeleteByDeploymentInput{DeploymentID: "office"}).
		Return(nil, &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")})

	env := newTestEnv(t, repo)
	env.put(t, "office", officeDoc(ap("AP1", 10, 10, 1)))

	_, err := env.client.Call(context.Background(), MethodDeleteDeployment,
		mustStruct(t, map[string]any{"id": "office"}))
	require.Equal(t, codes.Unavailable, status.Code(err))
	require.Zero(t, env.kb.Len())
}
