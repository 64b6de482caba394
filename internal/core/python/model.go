package python

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"cosmic-classifier/plugin/shared"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/hashicorp/go-plugin"
)

// Runtime is one python plugin process. Pickled scalers and classifiers are unpickled
// inside it and invoked by key. Calls are serialized since the plugin holds a single
// interpreter.
type Runtime struct {
	mu     sync.Mutex
	client *plugin.Client
	model  shared.Model
}

var ErrRuntimeStopped = errors.New("python runtime has been released")

func StartRuntime(pythonExecutable, pluginScript, workDir string) (*Runtime, error) {
	if pythonExecutable == "" || pluginScript == "" {
		return nil, errors.New("python plugin requires PYTHON_EXECUTABLE and PYTHON_PLUGIN_SCRIPT")
	}

	cmd := exec.Command(pythonExecutable, pluginScript)
	cmd.Dir = workDir

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  shared.Handshake,
		Plugins:          shared.PluginMap,
		Cmd:              cmd,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error establishing RPC connection: %w", err)
	}

	raw, err := rpcClient.Dispense(shared.PluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error dispensing '%s': %w", shared.PluginName, err)
	}

	model, ok := raw.(shared.Model)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed interface '%s' is not of expected type shared.Model (actual type: %T)", shared.PluginName, raw)
	}

	slog.Info("started python plugin", "python", pythonExecutable, "script", pluginScript)

	return NewRuntime(client, model), nil
}

// NewRuntime wraps an already dispensed model. client may be nil when the model is
// served in-process.
func NewRuntime(client *plugin.Client, model shared.Model) *Runtime {
	return &Runtime{client: client, model: model}
}

func (r *Runtime) load(ctx context.Context, role, key string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model == nil {
		return ErrRuntimeStopped
	}
	if err := r.model.Load(ctx, role, key, data); err != nil {
		return fmt.Errorf("python plugin failed to load %s '%s': %w", role, key, err)
	}
	return nil
}

func (r *Runtime) LoadScaler(ctx context.Context, key string, data []byte) (*Scaler, error) {
	if err := r.load(ctx, shared.RoleScaler, key, data); err != nil {
		return nil, err
	}
	return &Scaler{rt: r, key: key}, nil
}

func (r *Runtime) LoadClassifier(ctx context.Context, key string, data []byte) (*Classifier, error) {
	if err := r.load(ctx, shared.RoleClassifier, key, data); err != nil {
		return nil, err
	}
	return &Classifier{rt: r, key: key}, nil
}

func (r *Runtime) transform(ctx context.Context, key string, x []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model == nil {
		return nil, ErrRuntimeStopped
	}
	return r.model.Transform(ctx, key, x)
}

func (r *Runtime) predict(ctx context.Context, key string, x []float64) (int, []float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model == nil {
		return 0, nil, ErrRuntimeStopped
	}
	return r.model.Predict(ctx, key, x)
}

// Release stops the plugin process. It is safe to call more than once.
func (r *Runtime) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		r.client.Kill()
		r.client = nil
	}
	r.model = nil
}

type Scaler struct {
	rt  *Runtime
	key string
}

func (s *Scaler) Transform(ctx context.Context, raw types.FeatureVector) (types.FeatureVector, error) {
	out, err := s.rt.transform(ctx, s.key, raw.Slice())
	if err != nil {
		return types.FeatureVector{}, err
	}
	if len(out) != types.NumFeatures {
		return types.FeatureVector{}, fmt.Errorf("python scaler returned %d values, expected %d", len(out), types.NumFeatures)
	}
	return types.FeatureVectorFromValues([types.NumFeatures]float64(out)), nil
}

func (s *Scaler) Release() {
	s.rt.Release()
}

type Classifier struct {
	rt  *Runtime
	key string
}

func (c *Classifier) Predict(ctx context.Context, scaled types.FeatureVector) (types.Label, types.Distribution, error) {
	label, proba, err := c.rt.predict(ctx, c.key, scaled.Slice())
	if err != nil {
		return 0, types.Distribution{}, err
	}
	if len(proba) != types.NumClasses {
		return 0, types.Distribution{}, fmt.Errorf("python classifier returned %d probabilities, expected %d", len(proba), types.NumClasses)
	}
	return types.Label(label), types.Distribution(proba), nil
}

func (c *Classifier) Release() {
	c.rt.Release()
}
