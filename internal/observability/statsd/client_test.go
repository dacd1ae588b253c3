package statsd

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen returns a UDP listener and a func that reads one packet.
func listen(t *testing.T) (string, func() string) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	read := func() string {
		t.Helper()
		buf := make([]byte, 64<<10)
		require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err)
		return string(buf[:n])
	}
	return pc.LocalAddr().String(), read
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		" auth/sign_in ":  "auth_sign_in",
		"setup..step":     "setup.step",
		"modal:alert|x":   "modal_alert_x",
		".instances.live": "instances.live",
		"  ":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeName(in), in)
	}
}

func TestRenderTags(t *testing.T) {
	global := cleanTags(map[string]string{"env": "prod", " service ": " onboard "})
	local := map[string]string{"result": " ok ", "": "ignored", "env": "stage", "flow": "a,b"}

	assert.Equal(t, "|#env:stage,flow:a_b,result:ok,service:onboard", renderTags(global, local))
	assert.Empty(t, renderTags(nil, nil))
	assert.Equal(t, "|#k:v", renderTags(nil, map[string]string{"k": "v"}))
}

func TestClientBatchesUntilFlush(t *testing.T) {
	addr, read := listen(t)
	c, err := NewClient(Config{Address: addr, Prefix: ".onboard.", GlobalTags: map[string]string{"env": "test"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Count("auth.sign_in", 1, map[string]string{"result": "success"})
	c.Gauge("instances.live", 3, nil)
	c.Timing("collaborator.call", 1500*time.Microsecond, nil)
	c.Flush()

	assert.Equal(t, strings.Join([]string{
		"onboard.auth.sign_in:1|c|#env:test,result:success",
		"onboard.instances.live:3|g|#env:test",
		"onboard.collaborator.call:1.5|ms|#env:test",
	}, "\n"), read())
}

func TestClientSplitsPackets(t *testing.T) {
	addr, read := listen(t)
	c, err := NewClient(Config{Address: addr, MaxPacketSize: 24})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Count("first", 1, nil)
	c.Count("second", 2, nil)
	c.Count("third", 3, nil) // 20 buffered bytes + newline + 9 overflows 24
	assert.Equal(t, "first:1|c\nsecond:2|c", read())

	c.Flush()
	assert.Equal(t, "third:3|c", read())
}

func TestClientRunFlushesOnTickAndCancel(t *testing.T) {
	addr, read := listen(t)
	c, err := NewClient(Config{Address: addr, FlushInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	c.Count("ticked", 1, nil)
	assert.Equal(t, "ticked:1|c", read())

	cancel()
	require.NoError(t, <-done)
}

func TestClientCloseFlushesAndDrops(t *testing.T) {
	addr, read := listen(t)
	c, err := NewClient(Config{Address: addr})
	require.NoError(t, err)

	c.Count("last", 1, nil)
	require.NoError(t, c.Close())
	assert.Equal(t, "last:1|c", read())

	c.Count("after", 1, nil)
	c.Flush()
	require.NoError(t, c.Close())
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	c.Count("x", 1, nil)
	c.Gauge("x", 1, nil)
	c.Timing("x", time.Second, nil)
	c.Flush()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Run(context.Background()))
}

func TestNewClientRequiresAddress(t *testing.T) {
	_, err := NewClient(Config{Address: "  "})
	assert.Error(t, err)
}
