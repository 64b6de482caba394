package shared

import (
	"context"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
)

// Handshake is a common handshake that is shared by plugin and host.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "COSMIC_CLASSIFIER_PLUGIN",
	MagicCookieValue: "classifier",
}

const PluginName = "classifier_grpc"

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	PluginName: &ClassifierGRPCPlugin{},
}

// Roles an artifact can be loaded as inside the plugin process.
const (
	RoleScaler     = "scaler"
	RoleClassifier = "classifier"
)

// Model is the interface exposed by the plugin process. Artifacts are loaded once under
// a key and then referenced by that key.
type Model interface {
	Load(ctx context.Context, role, key string, data []byte) error
	Transform(ctx context.Context, key string, x []float64) ([]float64, error)
	Predict(ctx context.Context, key string, x []float64) (int, []float64, error)
}

// ClassifierGRPCPlugin is the plugin.GRPCPlugin implementation for Model.
type ClassifierGRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	// Concrete implementation, only set on the serving side.
	Impl Model
}

func (p *ClassifierGRPCPlugin) GRPCServer(broker *plugin.GRPCBroker, s *grpc.Server) error {
	RegisterModelServer(s, &GRPCServer{Impl: p.Impl})
	return nil
}

func (p *ClassifierGRPCPlugin) GRPCClient(ctx context.Context, broker *plugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return &GRPCClient{conn: c}, nil
}
