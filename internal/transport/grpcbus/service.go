package grpcbus

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// busServer is the interface the hand-written ServiceDesc below
// dispatches onto; server (in server.go) implements it.
type busServer interface {
	exchange(stream grpc.ServerStream) error
	barrier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func exchangeHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(busServer).exchange(stream)
}

func barrierHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(structpb.Struct)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(busServer).barrier(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/Barrier"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(busServer).barrier(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, req, info, handler)
}

const serviceName = "raftelect.transport.Bus"

// serviceDesc is the gRPC service description for the peer-to-peer
// envelope stream and the startup barrier rendezvous. It plays the
// role a protoc-gen-go-grpc *_grpc.pb.go file would normally play.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*busServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Barrier", Handler: barrierHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Exchange",
			Handler:       exchangeHandler,
			ClientStreams: true,
		},
	},
	Metadata: "internal/transport/grpcbus/service.go",
}
