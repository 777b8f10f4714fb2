package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "escrow.v1.EscrowService"

// EscrowServiceServer exposes the escrow engine over gRPC. Messages are
// google.protobuf.Struct documents so that collaborators need no generated
// stubs.
type EscrowServiceServer interface {
	CreateOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmPayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CorrectTotals(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordApproval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReleaseOnMilestone(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RaiseDispute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveDispute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrderState(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv EscrowServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EscrowServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(EscrowServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var EscrowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EscrowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateOrder", EscrowServiceServer.CreateOrder),
		unaryHandler("ConfirmPayment", EscrowServiceServer.ConfirmPayment),
		unaryHandler("CorrectTotals", EscrowServiceServer.CorrectTotals),
		unaryHandler("RecordApproval", EscrowServiceServer.RecordApproval),
		unaryHandler("ReleaseOnMilestone", EscrowServiceServer.ReleaseOnMilestone),
		unaryHandler("RaiseDispute", EscrowServiceServer.RaiseDispute),
		unaryHandler("ResolveDispute", EscrowServiceServer.ResolveDispute),
		unaryHandler("GetOrderState", EscrowServiceServer.GetOrderState),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "escrow/v1/escrow_service",
}

func RegisterEscrowServiceServer(s grpc.ServiceRegistrar, srv EscrowServiceServer) {
	s.RegisterService(&EscrowServiceDesc, srv)
}

// EscrowServiceClient calls EscrowService methods by name.
type EscrowServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEscrowServiceClient(cc grpc.ClientConnInterface) *EscrowServiceClient {
	return &EscrowServiceClient{cc: cc}
}

func (c *EscrowServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
