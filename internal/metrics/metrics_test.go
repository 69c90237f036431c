package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

func TestMetrics_RecordRPCCall(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRPCCall(100*time.Millisecond, nil)
	m.RecordRPCCall(50*time.Millisecond, wserr.ErrNetworkError)
	m.RecordRPCRetry()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.RPCCallsTotal)
	assert.Equal(t, int64(1), snap.RPCErrorsTotal)
	assert.Equal(t, int64(1), snap.RPCRetries)
}

func TestMetrics_RecordOp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op        Op
		total     func(Snapshot) int64
		errorsCnt func(Snapshot) int64
	}{
		{OpConnect, func(s Snapshot) int64 { return s.ConnectTotal }, func(s Snapshot) int64 { return s.ConnectErrors }},
		{OpDisconnect, func(s Snapshot) int64 { return s.DisconnectTotal }, func(s Snapshot) int64 { return s.DisconnectErrors }},
		{OpSign, func(s Snapshot) int64 { return s.SignTotal }, func(s Snapshot) int64 { return s.SignErrors }},
		{OpClient, func(s Snapshot) int64 { return s.ClientTotal }, func(s Snapshot) int64 { return s.ClientErrors }},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			t.Parallel()
			m := &Metrics{}
			m.RecordOp(tt.op, nil)
			m.RecordOp(tt.op, wserr.ErrRequestRejected)

			snap := m.Snapshot()
			assert.Equal(t, int64(2), tt.total(snap))
			assert.Equal(t, int64(1), tt.errorsCnt(snap))
		})
	}
}

func TestMetrics_RecordOp_Unknown(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	m.RecordOp(Op("bogus"), nil)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMetrics_ClientCacheHitRate(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	assert.InDelta(t, 0.0, m.ClientCacheHitRate(), 0.001)

	m.RecordClientCacheHit()
	m.RecordClientCacheHit()
	m.RecordClientCacheHit()
	m.RecordClientCacheMiss()

	assert.InDelta(t, 75.0, m.ClientCacheHitRate(), 0.001)
}

func TestMetrics_RPCLatencyAvg(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	assert.InDelta(t, 0.0, m.RPCLatencyAvgMs(), 0.001)

	m.RecordRPCCall(100*time.Millisecond, nil)
	m.RecordRPCCall(200*time.Millisecond, nil)

	assert.InDelta(t, 150.0, m.RPCLatencyAvgMs(), 1.0)
}

func TestMetrics_Reset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRPCCall(time.Millisecond, nil)
	m.RecordOp(OpSign, nil)
	m.RecordClientCacheMiss()
	m.RecordTransition()

	m.Reset()

	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestGlobal(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, Global)
}
