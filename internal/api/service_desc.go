package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "coverage.v1.CoverageService"

// Method names of the coverage service.
const (
	MethodPutDeployment      = "PutDeployment"
	MethodListDeployments    = "ListDeployments"
	MethodDeleteDeployment   = "DeleteDeployment"
	MethodEvaluateDeployment = "EvaluateDeployment"
	MethodGetEvaluation      = "GetEvaluation"
	MethodListEvaluations    = "ListEvaluations"
	MethodCompareDeployments = "CompareDeployments"
)

// CoverageServer is the server API of the coverage service. Requests and
// responses are JSON-shaped google.protobuf.Struct messages.
type CoverageServer interface {
	PutDeployment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDeployments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteDeployment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateDeployment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEvaluation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvaluations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompareDeployments(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(CoverageServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CoverageServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(CoverageServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// CoverageServiceDesc describes the coverage service for registration.
var CoverageServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CoverageServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc(MethodPutDeployment, CoverageServer.PutDeployment),
		methodDesc(MethodListDeployments, CoverageServer.ListDeployments),
		methodDesc(MethodDeleteDeployment, CoverageServer.DeleteDeployment),
		methodDesc(MethodEvaluateDeployment, CoverageServer.EvaluateDeployment),
		methodDesc(MethodGetEvaluation, CoverageServer.GetEvaluation),
		methodDesc(MethodListEvaluations, CoverageServer.ListEvaluations),
		methodDesc(MethodCompareDeployments, CoverageServer.CompareDeployments),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coverage/v1/coverage.proto",
}

// RegisterCoverageServer registers srv on s.
func RegisterCoverageServer(s grpc.ServiceRegistrar, srv CoverageServer) {
	s.RegisterService(&CoverageServiceDesc, srv)
}

// CoverageClient is a thin client for the coverage service.
type CoverageClient struct {
	cc grpc.ClientConnInterface
}

// NewCoverageClient wraps an established connection.
func NewCoverageClient(cc grpc.ClientConnInterface) *CoverageClient {
	return &CoverageClient{cc: cc}
}

// Call invokes method with req and returns the decoded response.
func (c *CoverageClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
