package bridge

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRelay_FlattensPackets(t *testing.T) {
	q := NewQueue()
	r := NewRelay(q, WithLogger(discardLogger()))

	require.NoError(t, r.HandlePackets([]byte{0x90, 0x3C, 0x40}, nil, []byte{0xB0, 0x07}))
	r.Receive([]byte{0x7F})
	require.NoError(t, r.HandlePackets())

	require.Equal(t, []byte{0x90, 0x3C, 0x40, 0xB0, 0x07, 0x7F}, q.TryReceiveAll(nil))
	require.False(t, r.Stopped())
}

func TestRelay_StopsAfterQueueTeardown(t *testing.T) {
	logger, logs := newTestLogger()
	q := NewQueue()
	r := NewRelay(q, WithLogger(logger))
	q.Close()

	require.ErrorIs(t, r.HandlePackets([]byte{0x90, 0x3C, 0x40}), ErrQueueClosed)
	require.True(t, r.Stopped())
	require.Equal(t, 1, logs.Count("relay: queue closed, stopping"))

	require.ErrorIs(t, r.HandlePackets([]byte{0x80, 0x3C, 0x00}), ErrRelayStopped)
	require.Equal(t, 1, logs.Count("relay: stopped, dropping inbound bytes"))
}

func TestRelay_DebugLogging(t *testing.T) {
	logger, logs := newLevelLogger(slog.LevelDebug)
	r := NewRelay(NewQueue(), WithLogger(logger))
	require.NoError(t, r.HandlePackets([]byte{0xF8}, []byte{0x90, 0x3C, 0x40}))
	require.Equal(t, 1, logs.Count(`data=F8`))
	require.Equal(t, 1, logs.Count(`data="90 3C 40"`))

	logger, logs = newTestLogger()
	r = NewRelay(NewQueue(), WithLogger(logger))
	require.NoError(t, r.HandlePackets([]byte{0xF8, 0xFE}))
	require.Empty(t, logs.String())
}

func TestHexBytes_LogValue(t *testing.T) {
	require.Equal(t, "90 3C 40", hexBytes{0x90, 0x3C, 0x40}.LogValue().String())
	require.Equal(t, "", hexBytes(nil).LogValue().String())
}
