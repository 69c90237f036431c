package coordinator

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"

	"github.com/showtime-xyz/walletsession/internal/config"
	"github.com/showtime-xyz/walletsession/internal/metrics"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

var (
	// ErrClosed is returned to pending and new callers after Close.
	ErrClosed = &wserr.SessionError{
		Code:     "SESSION_CLOSED",
		Message:  "wallet session closed",
		ExitCode: wserr.ExitGeneral,
	}

	// ErrNoProvider indicates a connected backend that exposes no provider.
	ErrNoProvider = &wserr.SessionError{
		Code:     "NO_PROVIDER",
		Message:  "wallet backend has no provider",
		ExitCode: wserr.ExitGeneral,
	}

	// ErrNoBackend indicates the operation needs a backend that is not configured.
	ErrNoBackend = &wserr.SessionError{
		Code:       "BACKEND_UNAVAILABLE",
		Message:    "wallet backend not configured",
		Suggestion: "enable the modal or mobile backend in config.yaml",
		ExitCode:   wserr.ExitNotFound,
	}

	// ErrNoAdapter indicates no client adapter is registered for a backend.
	ErrNoAdapter = errors.New("no client adapter registered")
)

// LogWriter is the logging surface the coordinator needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Config wires a Coordinator. Nil backends are treated as permanently
// disconnected.
type Config struct {
	Embedded EmbeddedWallet
	Modal    ModalWallet
	Mobile   MobileSDK

	// Chains defaults to DefaultChains.
	Chains Chains
	// Factory defaults to NewAdapterFactory(Chains, Mobile).
	Factory *AdapterFactory

	Logger  LogWriter
	Metrics *metrics.Metrics
}

// Coordinator implements Wallet on top of three independently owned backends.
//
// Backend notifications are applied synchronously under one mutex. A
// notification only triggers a re-read of that backend's State, so every
// recomputation sees the latest snapshot of all three backends even when
// notifications arrive out of order. Connect and Disconnect callers wait on
// buffered channels; every pending caller is released by the same event.
type Coordinator struct {
	embedded EmbeddedWallet
	modal    ModalWallet
	mobile   MobileSDK
	factory  *AdapterFactory
	logger   LogWriter
	metrics  *metrics.Metrics

	ctx    context.Context //nolint:containedctx // scopes background address lookups to the coordinator lifetime
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	snap    Snapshot
	session SessionState

	// embeddedAddr is the first account of the embedded client; embeddedGen
	// tags lookups so a stale one cannot overwrite a newer state.
	embeddedAddr string
	embeddedGen  uint64

	// clients caches one client per backend activation; clientGen bumps
	// whenever that backend's connection identity changes.
	clients   map[Backend]*walletclient.Client
	clientGen map[Backend]uint64

	nextID             uint64
	connectWaiters     map[uint64]chan ConnectResult
	disconnectWaiters  map[uint64]chan struct{}
	subscribers        map[uint64]func(SessionState)
	backendUnsubscribe []func()
}

var _ Wallet = (*Coordinator)(nil)

// New subscribes to the configured backends and derives the initial session.
func New(cfg Config) *Coordinator {
	if cfg.Chains == (Chains{}) {
		cfg.Chains = DefaultChains()
	}
	if cfg.Factory == nil {
		cfg.Factory = NewAdapterFactory(cfg.Chains, cfg.Mobile)
	}
	if cfg.Logger == nil {
		cfg.Logger = config.NullLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Global
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		embedded:          cfg.Embedded,
		modal:             cfg.Modal,
		mobile:            cfg.Mobile,
		factory:           cfg.Factory,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
		ctx:               ctx,
		cancel:            cancel,
		done:              make(chan struct{}),
		clients:           make(map[Backend]*walletclient.Client),
		clientGen:         make(map[Backend]uint64),
		connectWaiters:    make(map[uint64]chan ConnectResult),
		disconnectWaiters: make(map[uint64]chan struct{}),
		subscribers:       make(map[uint64]func(SessionState)),
	}

	// Subscribe before reading so no transition is lost in between; applying
	// the current state a second time is idempotent.
	if c.embedded != nil {
		c.backendUnsubscribe = append(c.backendUnsubscribe, c.embedded.Subscribe(c.onEmbedded))
		c.onEmbedded(c.embedded.State())
	}
	if c.modal != nil {
		c.backendUnsubscribe = append(c.backendUnsubscribe, c.modal.Subscribe(c.onModal))
		c.onModal(c.modal.State())
	}
	if c.mobile != nil {
		c.backendUnsubscribe = append(c.backendUnsubscribe, c.mobile.Subscribe(c.onMobile))
		c.onMobile(c.mobile.State())
	}

	return c
}

// Session returns the current derived state.
func (c *Coordinator) Session() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Address returns the session address or "".
func (c *Coordinator) Address() string { return c.Session().Address }

// Connected reports whether any backend is connected.
func (c *Coordinator) Connected() bool { return c.Session().Connected }

// Name returns the connected wallet's name: "" for modal wallets.
func (c *Coordinator) Name() string { return c.Session().Name }

// Snapshot returns the latest state of all backends.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers fn for session changes. fn is called outside the
// coordinator's lock and may call back into it.
func (c *Coordinator) Subscribe(fn func(SessionState)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Connect opens the modal flow and waits for the next event in which the
// modal backend, or the mobile SDK with an address, reports connected.
// It never initiates an embedded or mobile connection. There is no internal
// timeout; cancel ctx to give up.
func (c *Coordinator) Connect(ctx context.Context) (res ConnectResult, err error) {
	defer func() { c.metrics.RecordOp(metrics.OpConnect, err) }()

	if c.modal == nil {
		return ConnectResult{}, ErrNoBackend
	}

	id, ch, err := c.addConnectWaiter()
	if err != nil {
		return ConnectResult{}, err
	}

	c.logger.Debug("connect: opening modal (waiter %d)", id)
	if err := c.modal.Open(ctx); err != nil {
		c.removeConnectWaiter(id)
		c.logger.Error("connect: modal open failed: %v", err)
		return ConnectResult{}, err
	}

	select {
	case res := <-ch:
		c.logger.Debug("connect: resolved %s (%q)", res.Address, res.WalletName)
		return res, nil
	case <-ctx.Done():
		c.removeConnectWaiter(id)
		return ConnectResult{}, ctx.Err()
	case <-c.done:
		return ConnectResult{}, ErrClosed
	}
}

// Disconnect disconnects every connected modal and mobile backend and waits
// for the next event in which either reports not-connected. When nothing is
// connected it still waits for such an event, or for ctx.
func (c *Coordinator) Disconnect(ctx context.Context) (err error) {
	defer func() { c.metrics.RecordOp(metrics.OpDisconnect, err) }()

	if c.modal == nil && c.mobile == nil {
		return ErrNoBackend
	}

	id, ch, err := c.addDisconnectWaiter()
	if err != nil {
		return err
	}

	var errs []error
	if c.modal != nil && c.modal.State().Connected {
		c.logger.Debug("disconnect: modal")
		if err := c.modal.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.mobile != nil && c.mobile.State().Connected {
		c.logger.Debug("disconnect: mobile sdk")
		if err := c.mobile.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		c.removeDisconnectWaiter(id)
		c.logger.Error("disconnect: %v", errs)
		if len(errs) == 1 {
			return errs[0]
		}
		return errors.Join(errs...)
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		c.removeDisconnectWaiter(id)
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// WalletClient returns a client for the highest priority usable backend:
// the embedded wallet, then the modal provider, then the mobile SDK bridge.
// It returns (nil, nil) when none is usable.
func (c *Coordinator) WalletClient(ctx context.Context) (client *walletclient.Client, err error) {
	defer func() { c.metrics.RecordOp(metrics.OpClient, err) }()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	snap := c.snap
	b := clientBackend(snap)
	if b == BackendNone {
		c.mu.Unlock()
		return nil, nil
	}
	cached, ok := c.clients[b]
	gen := c.clientGen[b]
	c.mu.Unlock()

	if ok {
		c.metrics.RecordClientCacheHit()
		return cached, nil
	}
	return c.buildClient(ctx, b, snap, gen)
}

// clientBackend picks the backend WalletClient binds to.
func clientBackend(s Snapshot) Backend {
	switch {
	case s.Embedded.Connected:
		return BackendEmbedded
	case s.Modal.Connected && s.Modal.Provider != nil:
		return BackendModal
	case s.Mobile.Connected && s.Mobile.Address != "":
		return BackendMobileSDK
	default:
		return BackendNone
	}
}

// SignMessage signs message with the modal wallet when it is connected with
// a provider and address, otherwise with the mobile SDK when it is connected
// with an address. With neither it returns ("", nil). The embedded wallet is
// not consulted.
func (c *Coordinator) SignMessage(ctx context.Context, message string) (sig string, err error) {
	defer func() { c.metrics.RecordOp(metrics.OpSign, err) }()

	if c.isClosed() {
		return "", ErrClosed
	}

	if c.modal != nil {
		if m := c.modal.State(); m.Connected && m.Provider != nil && m.Address != "" {
			client, err := c.clientFor(ctx, BackendModal)
			if err != nil {
				return "", err
			}
			if client == nil {
				return "", ErrNoProvider
			}
			return client.SignMessage(ctx, m.Address, message)
		}
	}

	if c.mobile != nil {
		if m := c.mobile.State(); m.Connected && m.Address != "" {
			return c.mobile.PersonalSign(ctx, message, m.Address)
		}
	}

	c.logger.Debug("sign: no modal or mobile wallet connected")
	return "", nil
}

// Close unsubscribes from all backends and fails pending waiters with ErrClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubs := c.backendUnsubscribe
	c.backendUnsubscribe = nil
	c.connectWaiters = make(map[uint64]chan ConnectResult)
	c.disconnectWaiters = make(map[uint64]chan struct{})
	c.subscribers = make(map[uint64]func(SessionState))
	c.clients = make(map[Backend]*walletclient.Client)
	close(c.done)
	c.cancel()
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator) onEmbedded(EmbeddedState) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	st := c.embedded.State()

	prev := c.snap.Embedded
	c.snap.Embedded = st

	if prev.Connected != st.Connected || !sameProvider(prev.Provider, st.Provider) {
		c.invalidateLocked(BackendEmbedded)
		c.embeddedAddr = ""
		c.embeddedGen++
		if st.Connected && st.Provider != nil {
			go c.lookupEmbeddedAddress(c.embeddedGen)
		}
	}

	deliver := c.recomputeLocked()
	c.mu.Unlock()
	deliver()
}

func (c *Coordinator) onModal(ModalState) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	st := c.modal.State()

	prev := c.snap.Modal
	c.snap.Modal = st

	if prev.Connected != st.Connected || prev.Address != st.Address || !sameProvider(prev.Provider, st.Provider) {
		c.invalidateLocked(BackendModal)
	}

	if st.Connected {
		c.resolveConnectLocked(ConnectResult{Address: st.Address})
	} else {
		c.resolveDisconnectLocked()
	}

	deliver := c.recomputeLocked()
	c.mu.Unlock()
	deliver()
}

func (c *Coordinator) onMobile(MobileState) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	st := c.mobile.State()

	prev := c.snap.Mobile
	c.snap.Mobile = st

	if prev.Connected != st.Connected || prev.Address != st.Address {
		c.invalidateLocked(BackendMobileSDK)
	}

	switch {
	case st.Connected && st.Address != "":
		c.resolveConnectLocked(ConnectResult{Address: st.Address, WalletName: st.Name})
	case !st.Connected:
		c.resolveDisconnectLocked()
	}

	deliver := c.recomputeLocked()
	c.mu.Unlock()
	deliver()
}

// lookupEmbeddedAddress fetches the embedded client's first account and
// applies it only if no newer embedded transition happened meanwhile.
func (c *Coordinator) lookupEmbeddedAddress(gen uint64) {
	client, err := c.clientFor(c.ctx, BackendEmbedded)
	if err != nil || client == nil {
		if err != nil {
			c.logger.Error("embedded: building client: %v", err)
		}
		return
	}

	addrs, err := client.GetAddresses(c.ctx)
	if err != nil {
		c.logger.Error("embedded: fetching addresses: %v", err)
		return
	}
	if len(addrs) == 0 {
		return
	}

	c.mu.Lock()
	if c.closed || gen != c.embeddedGen {
		c.mu.Unlock()
		c.logger.Debug("embedded: dropping stale address lookup %d", gen)
		return
	}
	c.embeddedAddr = addrs[0]
	deliver := c.recomputeLocked()
	c.mu.Unlock()
	deliver()
}

// clientFor returns the cached client for b or builds one from the current
// snapshot.
func (c *Coordinator) clientFor(ctx context.Context, b Backend) (*walletclient.Client, error) {
	c.mu.Lock()
	if cl, ok := c.clients[b]; ok {
		c.mu.Unlock()
		c.metrics.RecordClientCacheHit()
		return cl, nil
	}
	snap, gen := c.snap, c.clientGen[b]
	c.mu.Unlock()

	return c.buildClient(ctx, b, snap, gen)
}

// buildClient builds b's client from snap, read at client generation gen.
// A client built across a transition of b is returned but not cached.
func (c *Coordinator) buildClient(ctx context.Context, b Backend, snap Snapshot, gen uint64) (*walletclient.Client, error) {
	c.metrics.RecordClientCacheMiss()
	cl, err := c.factory.Build(ctx, b, snap)
	if err != nil || cl == nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.closed && c.clientGen[b] == gen {
		c.clients[b] = cl
	}
	c.mu.Unlock()
	return cl, nil
}

func (c *Coordinator) invalidateLocked(b Backend) {
	delete(c.clients, b)
	c.clientGen[b]++
}

// recomputeLocked derives the session from the snapshot, performs the
// activation transition, and returns a func that notifies subscribers.
func (c *Coordinator) recomputeLocked() func() {
	next := deriveSession(c.snap, c.embeddedAddr)

	if next.Backend != c.session.Backend {
		c.logger.Debug("active backend: %s -> %s", c.session.Backend, next.Backend)
		c.metrics.RecordTransition()
	}

	if next == c.session {
		return func() {}
	}
	c.session = next

	ids := make([]uint64, 0, len(c.subscribers))
	for id := range c.subscribers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	subs := make([]func(SessionState), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, c.subscribers[id])
	}

	return func() {
		for _, fn := range subs {
			fn(next)
		}
	}
}

func deriveSession(s Snapshot, embeddedAddr string) SessionState {
	st := SessionState{
		Backend:   s.Active(),
		Connected: s.Embedded.Connected || s.Modal.Connected || s.Mobile.Connected,
	}

	switch {
	case s.Modal.Address != "":
		st.Address = s.Modal.Address
	case s.Mobile.Address != "":
		st.Address = s.Mobile.Address
	case s.Embedded.Connected:
		st.Address = embeddedAddr
	}

	if !s.Modal.Connected && s.Mobile.Connected {
		st.Name = s.Mobile.Name
	}

	return st
}

func (c *Coordinator) addConnectWaiter() (uint64, chan ConnectResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, nil, ErrClosed
	}
	c.nextID++
	ch := make(chan ConnectResult, 1)
	c.connectWaiters[c.nextID] = ch
	return c.nextID, ch, nil
}

func (c *Coordinator) removeConnectWaiter(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.connectWaiters, id)
}

func (c *Coordinator) addDisconnectWaiter() (uint64, chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, nil, ErrClosed
	}
	c.nextID++
	ch := make(chan struct{}, 1)
	c.disconnectWaiters[c.nextID] = ch
	return c.nextID, ch, nil
}

func (c *Coordinator) removeDisconnectWaiter(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.disconnectWaiters, id)
}

func (c *Coordinator) resolveConnectLocked(res ConnectResult) {
	for id, ch := range c.connectWaiters {
		ch <- res
		delete(c.connectWaiters, id)
	}
}

func (c *Coordinator) resolveDisconnectLocked() {
	for id, ch := range c.disconnectWaiters {
		ch <- struct{}{}
		delete(c.disconnectWaiters, id)
	}
}

// sameProvider compares providers by identity without panicking on
// uncomparable dynamic types. Func providers such as ProviderFunc carry no
// identity and never compare equal.
func sameProvider(a, b walletclient.Provider) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Slice, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	default:
		if ta.Comparable() {
			return a == b
		}
		return false
	}
}
