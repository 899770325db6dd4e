package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/gforms-server/config"
)

type payload struct {
	N    int    `json:"n"`
	Name string `json:"name"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got payload
	hit, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, m.Set(ctx, "k", payload{N: 3, Name: "x"}))
	hit, err = m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{N: 3, Name: "x"}, got)

	require.NoError(t, m.Delete(ctx, "k", "missing"))
	assert.False(t, m.Has("k"))
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var n Noop
	require.NoError(t, n.Set(ctx, "k", 1))
	hit, err := n.Get(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewWithoutAddrIsNoop(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "report:form:7", FormReportKey(7))
	assert.Equal(t, "report:template:7", TemplateReportKey(7))
}
