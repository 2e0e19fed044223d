// Package hostrpc is the thin gRPC client for the external compile Host
// (spec §6): the process that owns the parser, optimizer and split engine
// this module's querycore/compile package drives. Its shape mirrors a
// protoc-gen-go-grpc service file; the message types below stand in for
// the real wire protobufs (TKqpPhyTx et al. are reused bit-exact in the
// source system, out of scope to regenerate here — see
// querycore/wire/task.go's doc comment for the same call).
package hostrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	QueryHost_Parse_FullMethodName   = "/querycore.QueryHost/Parse"
	QueryHost_Split_FullMethodName   = "/querycore.QueryHost/Split"
	QueryHost_Compile_FullMethodName = "/querycore.QueryHost/Compile"
	QueryHost_Continue_FullMethodName = "/querycore.QueryHost/Continue"
)

// ParseRequest asks the host to parse query text.
type ParseRequest struct {
	QueryText string
	SqlVersion int32
}

// ParseReply is the host's parse result.
type ParseReply struct {
	Statements []string
	Issues     []*Issue
}

// Issue mirrors qerrors.Issue over the wire.
type Issue struct {
	Code    int32
	Message string
	Row, Col int32
	SubIssue []*Issue
}

// SplitRequest starts a SPLIT driver on the host.
type SplitRequest struct {
	QueryRef     string
	PerStatement bool
}

// CompileRequest starts a COMPILE driver on the host.
type CompileRequest struct {
	QueryRef     string
	QueryType    int32
	PerStatement bool
	Diagnostics  bool
}

// ContinueRequest advances a previously started Split/Compile driver.
type ContinueRequest struct {
	DriverId string
}

// StepReply is one Continue step's result; Finished gates whether the
// caller should poll again.
type StepReply struct {
	DriverId string
	Finished bool
	ErrorMessage string
}

// QueryHostClient is the client API for the QueryHost service.
type QueryHostClient interface {
	Parse(ctx context.Context, in *ParseRequest, opts ...grpc.CallOption) (*ParseReply, error)
	Split(ctx context.Context, in *SplitRequest, opts ...grpc.CallOption) (*StepReply, error)
	Compile(ctx context.Context, in *CompileRequest, opts ...grpc.CallOption) (*StepReply, error)
	Continue(ctx context.Context, in *ContinueRequest, opts ...grpc.CallOption) (*StepReply, error)
}

type queryHostClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryHostClient wraps a ClientConn as a QueryHostClient.
func NewQueryHostClient(cc grpc.ClientConnInterface) QueryHostClient {
	return &queryHostClient{cc}
}

func (c *queryHostClient) Parse(ctx context.Context, in *ParseRequest, opts ...grpc.CallOption) (*ParseReply, error) {
	out := new(ParseReply)
	if err := c.cc.Invoke(ctx, QueryHost_Parse_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queryHostClient) Split(ctx context.Context, in *SplitRequest, opts ...grpc.CallOption) (*StepReply, error) {
	out := new(StepReply)
	if err := c.cc.Invoke(ctx, QueryHost_Split_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queryHostClient) Compile(ctx context.Context, in *CompileRequest, opts ...grpc.CallOption) (*StepReply, error) {
	out := new(StepReply)
	if err := c.cc.Invoke(ctx, QueryHost_Compile_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queryHostClient) Continue(ctx context.Context, in *ContinueRequest, opts ...grpc.CallOption) (*StepReply, error) {
	out := new(StepReply)
	if err := c.cc.Invoke(ctx, QueryHost_Continue_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryHostServer is the server API for the QueryHost service. All
// implementations must embed UnimplementedQueryHostServer for forward
// compatibility.
type QueryHostServer interface {
	Parse(context.Context, *ParseRequest) (*ParseReply, error)
	Split(context.Context, *SplitRequest) (*StepReply, error)
	Compile(context.Context, *CompileRequest) (*StepReply, error)
	Continue(context.Context, *ContinueRequest) (*StepReply, error)
	mustEmbedUnimplementedQueryHostServer()
}

// UnimplementedQueryHostServer must be embedded by every QueryHostServer
// implementation.
type UnimplementedQueryHostServer struct{}

func (UnimplementedQueryHostServer) Parse(context.Context, *ParseRequest) (*ParseReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Parse not implemented")
}
func (UnimplementedQueryHostServer) Split(context.Context, *SplitRequest) (*StepReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Split not implemented")
}
func (UnimplementedQueryHostServer) Compile(context.Context, *CompileRequest) (*StepReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Compile not implemented")
}
func (UnimplementedQueryHostServer) Continue(context.Context, *ContinueRequest) (*StepReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Continue not implemented")
}
func (UnimplementedQueryHostServer) mustEmbedUnimplementedQueryHostServer() {}

// RegisterQueryHostServer registers srv on s.
func RegisterQueryHostServer(s grpc.ServiceRegistrar, srv QueryHostServer) {
	s.RegisterService(&QueryHost_ServiceDesc, srv)
}

func _QueryHost_Parse_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ParseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryHostServer).Parse(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: QueryHost_Parse_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryHostServer).Parse(ctx, req.(*ParseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// QueryHost_ServiceDesc is the grpc.ServiceDesc for the QueryHost service.
// It registers a handler for Parse only; Split, Compile and Continue have no
// server handler here, so a server registered with it does not serve them.
var QueryHost_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "querycore.QueryHost",
	HandlerType: (*QueryHostServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Parse", Handler: _QueryHost_Parse_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "querycore/queryhost.proto",
}
