package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// BackendClient is a typed client for the Backend service.
type BackendClient struct {
	cc grpc.ClientConnInterface
}

// NewBackendClient wraps a client connection.
func NewBackendClient(cc grpc.ClientConnInterface) *BackendClient {
	return &BackendClient{cc: cc}
}

func (c *BackendClient) invoke(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return Decode(out, resp)
}

func (c *BackendClient) ListConversations(ctx context.Context, opts ...grpc.CallOption) ([]Conversation, error) {
	var resp ListConversationsResponse
	if err := c.invoke(ctx, MethodListConversations, struct{}{}, &resp, opts...); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

func (c *BackendClient) ListMessages(ctx context.Context, req ListMessagesRequest, opts ...grpc.CallOption) ([]Message, error) {
	var resp ListMessagesResponse
	if err := c.invoke(ctx, MethodListMessages, req, &resp, opts...); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *BackendClient) SendMessage(ctx context.Context, req SendMessageRequest, opts ...grpc.CallOption) (SendMessageResponse, error) {
	var resp SendMessageResponse
	err := c.invoke(ctx, MethodSendMessage, req, &resp, opts...)
	return resp, err
}

func (c *BackendClient) InjectInbound(ctx context.Context, req InjectInboundRequest, opts ...grpc.CallOption) (Message, error) {
	var resp Message
	err := c.invoke(ctx, MethodInjectInbound, req, &resp, opts...)
	return resp, err
}

func (c *BackendClient) SetPresence(ctx context.Context, req SetPresenceRequest, opts ...grpc.CallOption) error {
	return c.invoke(ctx, MethodSetPresence, req, nil, opts...)
}

func (c *BackendClient) MarkRead(ctx context.Context, req MarkReadRequest, opts ...grpc.CallOption) error {
	return c.invoke(ctx, MethodMarkRead, req, nil, opts...)
}

func (c *BackendClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (StatusResponse, error) {
	var resp StatusResponse
	err := c.invoke(ctx, MethodGetStatus, struct{}{}, &resp, opts...)
	return resp, err
}

// Backend_WatchEventsClient is the client side of the WatchEvents stream.
type Backend_WatchEventsClient interface {
	Recv() (Event, error)
	grpc.ClientStream
}

type backendWatchEventsClient struct {
	grpc.ClientStream
}

func (x *backendWatchEventsClient) Recv() (Event, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return Event{}, err
	}
	var evt Event
	err := Decode(m, &evt)
	return evt, err
}

// WatchEvents opens the backend event stream.
func (c *BackendClient) WatchEvents(ctx context.Context, opts ...grpc.CallOption) (Backend_WatchEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &Backend_ServiceDesc.Streams[0], "/"+ServiceName+"/"+StreamWatchEvents, opts...)
	if err != nil {
		return nil, err
	}
	x := &backendWatchEventsClient{stream}
	if err := x.ClientStream.SendMsg(&structpb.Struct{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
