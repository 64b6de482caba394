package shared

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// doubler scales by doubling and predicts class 2 with a fixed distribution.
type doubler struct {
	loaded map[string][]byte
}

func (d *doubler) Load(_ context.Context, role, key string, data []byte) error {
	if role != RoleScaler && role != RoleClassifier {
		return errors.New("bad role")
	}
	d.loaded[key] = data
	return nil
}

func (d *doubler) Transform(_ context.Context, key string, x []float64) ([]float64, error) {
	if _, ok := d.loaded[key]; !ok {
		return nil, errors.New("no model loaded for key " + key)
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 2 * v
	}
	return out, nil
}

func (d *doubler) Predict(_ context.Context, key string, x []float64) (int, []float64, error) {
	if _, ok := d.loaded[key]; !ok {
		return 0, nil, errors.New("no model loaded for key " + key)
	}
	return 2, []float64{0.1, 0.2, 0.7}, nil
}

func newTestClient(t *testing.T, impl Model) *GRPCClient {
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterModelServer(server, &GRPCServer{Impl: impl})
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewGRPCClient(conn)
}

func TestGRPCRoundTrip(t *testing.T) {
	impl := &doubler{loaded: map[string][]byte{}}
	client := newTestClient(t, impl)
	ctx := context.Background()

	artifact := []byte{0x80, 0x04, 0x95, 0x00, 0xff}
	require.NoError(t, client.Load(ctx, RoleScaler, "scaler.pkl", artifact))
	assert.Equal(t, artifact, impl.loaded["scaler.pkl"])

	out, err := client.Transform(ctx, "scaler.pkl", []float64{1, -2.5, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -5, 0}, out)

	require.NoError(t, client.Load(ctx, RoleClassifier, "model.pkl", []byte("model")))
	label, proba, err := client.Predict(ctx, "model.pkl", []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, label)
	assert.Equal(t, []float64{0.1, 0.2, 0.7}, proba)
}

func TestGRPCErrors(t *testing.T) {
	client := newTestClient(t, &doubler{loaded: map[string][]byte{}})
	ctx := context.Background()

	_, err := client.Transform(ctx, "missing.pkl", []float64{1})
	assert.ErrorContains(t, err, "no model loaded for key missing.pkl")

	err = client.Load(ctx, "optimizer", "x.pkl", nil)
	assert.ErrorContains(t, err, "bad role")
}
