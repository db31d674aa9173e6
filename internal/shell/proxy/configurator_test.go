package proxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/shell/remote"
	"github.com/artpar/dockhand/internal/shell/remote/remotetest"
)

func TestApply_WritesValidatesReloads(t *testing.T) {
	fake := &remotetest.Runner{}
	c := NewConfigurator(fake, "", nil)

	require.NoError(t, c.Apply(context.Background(), "shop", 8080))

	require.Len(t, fake.Calls, 3)
	assert.Equal(t, "input", fake.Calls[0].Kind)
	assert.Equal(t, "cat > /etc/nginx/conf.d/shop.conf", fake.Calls[0].Command)
	assert.Contains(t, fake.Calls[0].Stdin, "proxy_pass http://127.0.0.1:8080;")
	assert.Equal(t, "nginx -t", fake.Calls[1].Command)
	assert.Equal(t, "systemctl reload nginx", fake.Calls[2].Command)
}

func TestApply_SyntaxFailureSkipsReload(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.Stub("nginx -t", remotetest.Response{Result: remote.Result{ExitCode: 1, Stderr: "unexpected end of file"}})

	c := NewConfigurator(fake, "", nil)
	err := c.Apply(context.Background(), "shop", 8080)

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
	assert.False(t, fake.Ran("systemctl reload nginx"), "reload must never follow a failed syntax check")
}

func TestApply_CustomFragmentDir(t *testing.T) {
	fake := &remotetest.Runner{}
	c := NewConfigurator(fake, "/etc/nginx/vhosts.d", nil)

	require.NoError(t, c.Apply(context.Background(), "shop", 8080))
	assert.Equal(t, "cat > /etc/nginx/vhosts.d/shop.conf", fake.Calls[0].Command)
}

func TestRemove_ToleratesAbsentFragment(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.StubExit("rm -f", 1)

	c := NewConfigurator(fake, "", nil)
	assert.NoError(t, c.Remove(context.Background(), "shop"))
	assert.True(t, fake.Ran("rm -f /etc/nginx/conf.d/shop.conf"))
	assert.True(t, fake.Ran("nginx -t && systemctl reload nginx"))
}
