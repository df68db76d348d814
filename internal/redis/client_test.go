package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient("", nil)
	require.Error(t, err)

	_, err = NewClientFromURL("")
	require.Error(t, err)

	_, err = NewClientFromURL("http://not-redis")
	require.Error(t, err)
}

func TestNewClientTalksToServer(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(mr.Addr(), &Options{PoolSize: 2})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	got, err := client.Get(ctx, "k").Result()
	require.NoError(t, err)
	require.Equal(t, "v", got)

	fromURL, err := NewClientFromURL("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer fromURL.Close()
	require.NoError(t, fromURL.Ping(ctx).Err())
}
