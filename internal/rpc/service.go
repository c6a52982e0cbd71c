// Package rpc defines the odysia.chat.v1.Backend gRPC service. Requests and
// responses travel as google.protobuf.Struct and are decoded into the typed
// wire structs in wire.go.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "odysia.chat.v1.Backend"

const (
	MethodListConversations = "ListConversations"
	MethodListMessages      = "ListMessages"
	MethodSendMessage       = "SendMessage"
	MethodInjectInbound     = "InjectInbound"
	MethodSetPresence       = "SetPresence"
	MethodMarkRead          = "MarkRead"
	MethodGetStatus         = "GetStatus"
	StreamWatchEvents       = "WatchEvents"
)

// BackendServer is the server API for the Backend service.
type BackendServer interface {
	ListConversations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	InjectInbound(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPresence(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkRead(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchEvents(*structpb.Struct, Backend_WatchEventsServer) error
}

// UnimplementedBackendServer can be embedded to satisfy BackendServer.
type UnimplementedBackendServer struct{}

func (UnimplementedBackendServer) ListConversations(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method ListConversations not implemented")
}
func (UnimplementedBackendServer) ListMessages(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method ListMessages not implemented")
}
func (UnimplementedBackendServer) SendMessage(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method SendMessage not implemented")
}
func (UnimplementedBackendServer) InjectInbound(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method InjectInbound not implemented")
}
func (UnimplementedBackendServer) SetPresence(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method SetPresence not implemented")
}
func (UnimplementedBackendServer) MarkRead(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method MarkRead not implemented")
}
func (UnimplementedBackendServer) GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method GetStatus not implemented")
}
func (UnimplementedBackendServer) WatchEvents(*structpb.Struct, Backend_WatchEventsServer) error {
	return grpcstatus.Errorf(codes.Unimplemented, "method WatchEvents not implemented")
}

// RegisterBackendServer registers srv on s.
func RegisterBackendServer(s grpc.ServiceRegistrar, srv BackendServer) {
	s.RegisterService(&Backend_ServiceDesc, srv)
}

type unaryCall func(BackendServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BackendServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BackendServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func _Backend_WatchEvents_Handler(srv any, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(BackendServer).WatchEvents(m, &backendWatchEventsServer{stream})
}

// Backend_WatchEventsServer is the server side of the WatchEvents stream.
type Backend_WatchEventsServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type backendWatchEventsServer struct {
	grpc.ServerStream
}

func (x *backendWatchEventsServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// Backend_ServiceDesc is the grpc.ServiceDesc for the Backend service.
var Backend_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BackendServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodListConversations, BackendServer.ListConversations),
		unary(MethodListMessages, BackendServer.ListMessages),
		unary(MethodSendMessage, BackendServer.SendMessage),
		unary(MethodInjectInbound, BackendServer.InjectInbound),
		unary(MethodSetPresence, BackendServer.SetPresence),
		unary(MethodMarkRead, BackendServer.MarkRead),
		unary(MethodGetStatus, BackendServer.GetStatus),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    StreamWatchEvents,
			Handler:       _Backend_WatchEvents_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "odysia/chat/v1/backend.proto",
}
