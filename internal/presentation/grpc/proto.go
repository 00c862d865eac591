package grpc

// proto.go hand-writes the service descriptor and client for
// diabetes.risk.v1.RiskAssessmentService. Messages travel as JSON.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Full method names, as seen by interceptors.
const (
	ServiceName         = "diabetes.risk.v1.RiskAssessmentService"
	MethodAssess        = "/" + ServiceName + "/Assess"
	MethodGetAssessment = "/" + ServiceName + "/GetAssessment"
	healthCheckMethod   = "/grpc.health.v1.Health/Check"
	healthWatchMethod   = "/grpc.health.v1.Health/Watch"
)

// RiskAssessmentServiceServer is the server API for RiskAssessmentService.
type RiskAssessmentServiceServer interface {
	Assess(context.Context, *AssessRequest) (*AssessResponse, error)
	GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error)
	mustEmbedUnimplementedRiskAssessmentServiceServer()
}

// UnimplementedRiskAssessmentServiceServer provides forward-compatible default implementations.
type UnimplementedRiskAssessmentServiceServer struct{}

func (UnimplementedRiskAssessmentServiceServer) Assess(context.Context, *AssessRequest) (*AssessResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Assess not implemented")
}
func (UnimplementedRiskAssessmentServiceServer) GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetAssessment not implemented")
}
func (UnimplementedRiskAssessmentServiceServer) mustEmbedUnimplementedRiskAssessmentServiceServer() {}

// RegisterRiskAssessmentServiceServer registers the service with the gRPC server.
func RegisterRiskAssessmentServiceServer(s grpclib.ServiceRegistrar, srv RiskAssessmentServiceServer) {
	s.RegisterService(&riskAssessmentServiceDesc, srv)
}

var riskAssessmentServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RiskAssessmentServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Assess", Handler: assessHandler},
		{MethodName: "GetAssessment", Handler: getAssessmentHandler},
	},
	Streams: []grpclib.StreamDesc{},
}

func assessHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(AssessRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskAssessmentServiceServer).Assess(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodAssess}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(RiskAssessmentServiceServer).Assess(ctx, req.(*AssessRequest))
	})
}

func getAssessmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(GetAssessmentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskAssessmentServiceServer).GetAssessment(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodGetAssessment}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(RiskAssessmentServiceServer).GetAssessment(ctx, req.(*GetAssessmentRequest))
	})
}

// RiskAssessmentServiceClient is the client API for RiskAssessmentService.
type RiskAssessmentServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewRiskAssessmentServiceClient creates a client that speaks the JSON codec.
func NewRiskAssessmentServiceClient(cc grpclib.ClientConnInterface) *RiskAssessmentServiceClient {
	return &RiskAssessmentServiceClient{cc: cc}
}

// Assess runs an assessment remotely.
func (c *RiskAssessmentServiceClient) Assess(ctx context.Context, in *AssessRequest, opts ...grpclib.CallOption) (*AssessResponse, error) {
	out := new(AssessResponse)
	if err := c.cc.Invoke(ctx, MethodAssess, in, out, append(opts, jsonCallOption())...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAssessment fetches an audited assessment remotely.
func (c *RiskAssessmentServiceClient) GetAssessment(ctx context.Context, in *GetAssessmentRequest, opts ...grpclib.CallOption) (*GetAssessmentResponse, error) {
	out := new(GetAssessmentResponse)
	if err := c.cc.Invoke(ctx, MethodGetAssessment, in, out, append(opts, jsonCallOption())...); err != nil {
		return nil, err
	}
	return out, nil
}
