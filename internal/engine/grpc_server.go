package engine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Контракт gRPC описан вручную: сообщения это google.protobuf.Struct с тем же JSON,
// что и у HTTP API, поэтому отдельный .proto и кодогенерация не нужны.
const (
	StateResolverService = "resilience.v1.StateResolver"
	stateResolveMethod   = "/" + StateResolverService + "/Resolve"
)

type StateResolverServer interface {
	Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var StateResolverServiceDesc = grpc.ServiceDesc{
	ServiceName: StateResolverService,
	HandlerType: (*StateResolverServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Resolve", Handler: resolveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "resilience/v1/state.proto",
}

func resolveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateResolverServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: stateResolveMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StateResolverServer).Resolve(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterStateResolverServer регистрирует сервис на gRPC сервере
func RegisterStateResolverServer(s grpc.ServiceRegistrar, srv StateResolverServer) {
	s.RegisterService(&StateResolverServiceDesc, srv)
}

// StateResolverClient клиент для внутренних сервисов и тестов
type StateResolverClient struct {
	cc grpc.ClientConnInterface
}

func NewStateResolverClient(cc grpc.ClientConnInterface) *StateResolverClient {
	return &StateResolverClient{cc: cc}
}

func (c *StateResolverClient) Resolve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, stateResolveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type GRPCStateServer struct {
	core *Core
}

func NewGRPCStateServer(core *Core) *GRPCStateServer {
	return &GRPCStateServer{core: core}
}

func (s *GRPCStateServer) Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	// 1. Struct -> JSON -> метаданные (тот же контракт, что у HTTP)
	raw, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	var meta domain.SearchResponseMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode metadata: %v", err)
	}

	// 2. Единый пайплайн резолюции
	view, err := s.core.Resolve(ctx, meta, SourceGRPC)
	if err != nil {
		if errors.Is(err, domain.ErrMissingResponseState) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	// 3. Ответ обратно в Struct
	return toStruct(view)
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode view: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode view: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode view: %v", err)
	}
	return out, nil
}
