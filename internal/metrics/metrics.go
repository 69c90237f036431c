// Package metrics provides in-process counters for wallet session activity.
package metrics

import (
	"sync/atomic"
	"time"
)

// Op names a coordinator operation.
type Op string

// Coordinator operations tracked by Metrics.
const (
	OpConnect    Op = "connect"
	OpDisconnect Op = "disconnect"
	OpSign       Op = "sign"
	OpClient     Op = "client"
)

type opCounters struct {
	total  atomic.Int64
	errors atomic.Int64
}

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcRetries      atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Coordinator operations
	connect    opCounters
	disconnect opCounters
	sign       opCounters
	client     opCounters

	// Wallet client cache
	clientCacheHits   atomic.Int64
	clientCacheMisses atomic.Int64

	// Session state transitions
	transitions atomic.Int64
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records a JSON-RPC call with its duration and success status.
func (m *Metrics) RecordRPCCall(duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// RecordRPCRetry records a retried read-only call.
func (m *Metrics) RecordRPCRetry() {
	m.rpcRetries.Add(1)
}

// RecordOp records a coordinator operation outcome.
func (m *Metrics) RecordOp(op Op, err error) {
	c := m.counters(op)
	if c == nil {
		return
	}
	c.total.Add(1)
	if err != nil {
		c.errors.Add(1)
	}
}

func (m *Metrics) counters(op Op) *opCounters {
	switch op {
	case OpConnect:
		return &m.connect
	case OpDisconnect:
		return &m.disconnect
	case OpSign:
		return &m.sign
	case OpClient:
		return &m.client
	default:
		return nil
	}
}

// RecordClientCacheHit records a wallet client served from the activation cache.
func (m *Metrics) RecordClientCacheHit() {
	m.clientCacheHits.Add(1)
}

// RecordClientCacheMiss records a wallet client built by an adapter.
func (m *Metrics) RecordClientCacheMiss() {
	m.clientCacheMisses.Add(1)
}

// RecordTransition records a change of the active backend.
func (m *Metrics) RecordTransition() {
	m.transitions.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal     int64 `json:"rpc_calls_total"`
	RPCErrorsTotal    int64 `json:"rpc_errors_total"`
	RPCRetries        int64 `json:"rpc_retries"`
	RPCLatencyNanos   int64 `json:"rpc_latency_nanos"`
	ConnectTotal      int64 `json:"connect_total"`
	ConnectErrors     int64 `json:"connect_errors"`
	DisconnectTotal   int64 `json:"disconnect_total"`
	DisconnectErrors  int64 `json:"disconnect_errors"`
	SignTotal         int64 `json:"sign_total"`
	SignErrors        int64 `json:"sign_errors"`
	ClientTotal       int64 `json:"client_total"`
	ClientErrors      int64 `json:"client_errors"`
	ClientCacheHits   int64 `json:"client_cache_hits"`
	ClientCacheMisses int64 `json:"client_cache_misses"`
	Transitions       int64 `json:"transitions"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:     m.rpcCallsTotal.Load(),
		RPCErrorsTotal:    m.rpcErrorsTotal.Load(),
		RPCRetries:        m.rpcRetries.Load(),
		RPCLatencyNanos:   m.rpcLatencyNanos.Load(),
		ConnectTotal:      m.connect.total.Load(),
		ConnectErrors:     m.connect.errors.Load(),
		DisconnectTotal:   m.disconnect.total.Load(),
		DisconnectErrors:  m.disconnect.errors.Load(),
		SignTotal:         m.sign.total.Load(),
		SignErrors:        m.sign.errors.Load(),
		ClientTotal:       m.client.total.Load(),
		ClientErrors:      m.client.errors.Load(),
		ClientCacheHits:   m.clientCacheHits.Load(),
		ClientCacheMisses: m.clientCacheMisses.Load(),
		Transitions:       m.transitions.Load(),
	}
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.rpcLatencyNanos.Load()) / float64(calls) / 1e6
}

// ClientCacheHitRate returns the wallet client cache hit rate as a percentage (0-100).
func (m *Metrics) ClientCacheHitRate() float64 {
	hits := m.clientCacheHits.Load()
	total := hits + m.clientCacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcRetries.Store(0)
	m.rpcLatencyNanos.Store(0)
	for _, c := range []*opCounters{&m.connect, &m.disconnect, &m.sign, &m.client} {
		c.total.Store(0)
		c.errors.Store(0)
	}
	m.clientCacheHits.Store(0)
	m.clientCacheMisses.Store(0)
	m.transitions.Store(0)
}
