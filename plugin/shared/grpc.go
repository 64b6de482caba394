package shared

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service exchanges google.protobuf.Struct messages so that the python side can be
// served with a generic handler and no generated stubs. Artifact bytes travel base64
// encoded under "data"; vectors travel as number lists.
const serviceName = "plugin.Classifier"

type modelServer interface {
	Load(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Transform(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func unaryMethod(name string, call func(modelServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(modelServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(modelServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var modelServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*modelServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Load", modelServer.Load),
		unaryMethod("Transform", modelServer.Transform),
		unaryMethod("Predict", modelServer.Predict),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "classifier.proto",
}

func RegisterModelServer(s grpc.ServiceRegistrar, srv modelServer) {
	s.RegisterService(&modelServiceDesc, srv)
}

func floatList(values []float64) *structpb.Value {
	list := make([]*structpb.Value, len(values))
	for i, v := range values {
		list[i] = structpb.NewNumberValue(v)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: list})
}

func getFloats(s *structpb.Struct, field string) ([]float64, error) {
	v, ok := s.GetFields()[field]
	if !ok {
		return nil, fmt.Errorf("missing field '%s'", field)
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("field '%s' is not a list", field)
	}
	out := make([]float64, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("field '%s' has non-numeric value at index %d", field, i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

func getString(s *structpb.Struct, field string) string {
	return s.GetFields()[field].GetStringValue()
}

// GRPCClient is an implementation of Model that talks over gRPC.
type GRPCClient struct{ conn *grpc.ClientConn }

func NewGRPCClient(conn *grpc.ClientConn) *GRPCClient {
	return &GRPCClient{conn: conn}
}

func (m *GRPCClient) invoke(ctx context.Context, method string, fields map[string]*structpb.Value) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := m.conn.Invoke(ctx, "/"+serviceName+"/"+method, &structpb.Struct{Fields: fields}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *GRPCClient) Load(ctx context.Context, role, key string, data []byte) error {
	_, err := m.invoke(ctx, "Load", map[string]*structpb.Value{
		"role": structpb.NewStringValue(role),
		"key":  structpb.NewStringValue(key),
		"data": structpb.NewStringValue(base64.StdEncoding.EncodeToString(data)),
	})
	return err
}

func (m *GRPCClient) Transform(ctx context.Context, key string, x []float64) ([]float64, error) {
	resp, err := m.invoke(ctx, "Transform", map[string]*structpb.Value{
		"key": structpb.NewStringValue(key),
		"x":   floatList(x),
	})
	if err != nil {
		return nil, err
	}
	return getFloats(resp, "x")
}

func (m *GRPCClient) Predict(ctx context.Context, key string, x []float64) (int, []float64, error) {
	resp, err := m.invoke(ctx, "Predict", map[string]*structpb.Value{
		"key": structpb.NewStringValue(key),
		"x":   floatList(x),
	})
	if err != nil {
		return 0, nil, err
	}
	label, ok := resp.GetFields()["label"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, nil, fmt.Errorf("predict response is missing 'label'")
	}
	proba, err := getFloats(resp, "probabilities")
	if err != nil {
		return 0, nil, err
	}
	return int(label.NumberValue), proba, nil
}

// Here is the gRPC server that GRPCClient talks to.
type GRPCServer struct {
	// This is the real implementation
	Impl Model
}

func (m *GRPCServer) Load(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	data, err := base64.StdEncoding.DecodeString(getString(req, "data"))
	if err != nil {
		return nil, fmt.Errorf("invalid artifact encoding: %w", err)
	}
	if err := m.Impl.Load(ctx, getString(req, "role"), getString(req, "key"), data); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (m *GRPCServer) Transform(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	x, err := getFloats(req, "x")
	if err != nil {
		return nil, err
	}
	out, err := m.Impl.Transform(ctx, getString(req, "key"), x)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"x": floatList(out)}}, nil
}

func (m *GRPCServer) Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	x, err := getFloats(req, "x")
	if err != nil {
		return nil, err
	}
	label, proba, err := m.Impl.Predict(ctx, getString(req, "key"), x)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"label":         structpb.NewNumberValue(float64(label)),
		"probabilities": floatList(proba),
	}}, nil
}
