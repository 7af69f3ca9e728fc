// Package testnats runs a NATS server testcontainer shared by the tests of
// one package.
package testnats

import (
	"context"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	sharedContainer *NATSContainer
	sharedErr       error
	sharedOnce      sync.Once
)

type NATSContainer struct {
	Container testcontainers.Container
	URL       string
}

func SetupSharedNATS(t *testing.T) *NATSContainer {
	t.Helper()

	sharedOnce.Do(func() {
		sharedContainer, sharedErr = start(context.Background())
	})
	require.NoError(t, sharedErr, "failed to start nats container")

	return sharedContainer
}

func start(ctx context.Context) (*NATSContainer, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	host, err := c.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := c.MappedPort(ctx, "4222")
	if err != nil {
		return nil, err
	}

	return &NATSContainer{
		Container: c,
		URL:       "nats://" + host + ":" + port.Port(),
	}, nil
}

// Subscribe opens a client connection subscribed to subject and closes it
// when the test ends.
func (nc *NATSContainer) Subscribe(t *testing.T, subject string) *nats.Subscription {
	t.Helper()

	conn, err := nats.Connect(nc.URL)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	sub, err := conn.SubscribeSync(subject)
	require.NoError(t, err)
	require.NoError(t, conn.Flush())

	return sub
}
