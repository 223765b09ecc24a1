// Package modem runs a simulated RIL modem: a protocol Engine that answers
// request frames from a virtual device, and a Modem that drives the engine
// on wall-clock time and connects it to transports.
package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"i4.energy/across/fakeril/device"
	"i4.energy/across/fakeril/ril"
)

// Modem owns an Engine and serializes all access to it through a single
// event loop. Frames and commands may be submitted from any goroutine.
type Modem struct {
	// engine is only touched by the Loop goroutine once Loop has started
	engine *Engine
	// config contains the modem configuration settings
	config Config
	logger *slog.Logger

	// closed indicates if the modem has been shut down
	closed atomic.Bool
	done   chan struct{}
	// run is the Loop currently running, nil when there is none
	run atomic.Pointer[loopRun]

	// frames carries inbound request frames to the Loop
	frames chan []byte
	// requests queues work that must run on the Loop
	requests chan *loopRequest

	// subs is replaced, never modified in place, so broadcast can range
	// over it without holding subsMu.
	subsMu  sync.Mutex
	subs    []subscriber
	lastSub int
}

// loopRun tracks one execution of Loop. exited is closed when it returns.
type loopRun struct {
	exited chan struct{}
}

type subscriber struct {
	id int
	fn func([]byte)
}

// loopRequest is a unit of work executed by the Loop against the engine.
type loopRequest struct {
	fn   func(e *Engine) error
	errc chan error
}

// New creates a Modem simulating config.Profile. The SIM card is inserted
// when config.CardPresent is set. Nothing runs until Loop is called.
func New(config Config) (*Modem, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	dev, err := device.New(config.Profile)
	if err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}

	m := &Modem{
		engine:   NewEngine(dev, config.Logger, config.Seed),
		config:   config,
		logger:   config.Logger.With("component", "modem", "slot", config.Profile.Slot),
		done:     make(chan struct{}),
		frames:   make(chan []byte),
		requests: make(chan *loopRequest),
	}
	m.engine.SetOutput(m.broadcast)
	if config.CardPresent {
		m.engine.SetCardPresent(true)
	}
	return m, nil
}

// Loop is the main event loop. It must run on exactly one goroutine; every
// frame, command and scheduled action of the simulator is processed here.
// Elapsed wall time since the loop started is mapped onto the engine's
// virtual clock, and a timer wakes the loop when the next scheduled action
// falls due.
//
// The Loop runs until the provided context is cancelled or the modem is
// closed.
//
// Usage:
//
//	m, err := modem.New(config)
//	if err != nil { return err }
//
//	go m.Loop(ctx)
//
//	m.OnFrame(func(frame []byte) { ... })
//	err = m.SubmitFrame(ctx, request)
func (m *Modem) Loop(ctx context.Context) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	run := &loopRun{exited: make(chan struct{})}
	if !m.run.CompareAndSwap(nil, run) {
		return ErrLoopRunning
	}
	defer func() {
		m.run.Store(nil)
		close(run.exited)
	}()

	epoch := time.Now().Add(-m.engine.Now())
	advance := func() {
		m.engine.AdvanceTo(time.Since(epoch))
	}

	if m.config.Startup {
		m.engine.Start()
	}

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		advance()
		if due, ok := m.engine.NextDue(); ok {
			timer.Reset(max(due-m.engine.Now(), 0))
		} else {
			timer.Stop()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-m.done:
			return ErrAlreadyClosed

		case frame := <-m.frames:
			advance()
			m.engine.Submit(frame)

		case req := <-m.requests:
			advance()
			req.errc <- req.fn(m.engine)

		case <-timer.C:
		}
	}
}

// Running reports whether Loop is running.
func (m *Modem) Running() bool {
	return m.run.Load() != nil
}

// do runs fn on the Loop and waits for its result.
func (m *Modem) do(ctx context.Context, fn func(e *Engine) error) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	run := m.run.Load()
	if run == nil {
		return ErrNotRunning
	}

	req := &loopRequest{fn: fn, errc: make(chan error, 1)}
	select {
	case m.requests <- req:
	case <-run.exited:
		return ErrNotRunning
	case <-m.done:
		return ErrAlreadyClosed
	case <-ctx.Done():
		return fmt.Errorf("request cancelled before running: %w", ctx.Err())
	}

	select {
	case err := <-req.errc:
		return err
	case <-ctx.Done():
		return fmt.Errorf("request timeout: %w", ctx.Err())
	}
}

// SubmitFrame hands inbound bytes to the engine. data may hold several
// whole frames. It returns once the Loop has accepted the data, or
// ErrNotRunning when the Loop exits first.
func (m *Modem) SubmitFrame(ctx context.Context, data []byte) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	run := m.run.Load()
	if run == nil {
		return ErrNotRunning
	}

	select {
	case m.frames <- append([]byte(nil), data...):
		return nil
	case <-run.exited:
		return ErrNotRunning
	case <-m.done:
		return ErrAlreadyClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnFrame registers fn to receive every outbound frame. fn runs on the Loop
// goroutine and must not block. The returned function removes fn; it may be
// called from within fn.
func (m *Modem) OnFrame(fn func(frame []byte)) (unsubscribe func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	m.lastSub++
	id := m.lastSub
	m.subs = append(slices.Clip(m.subs), subscriber{id: id, fn: fn})

	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		m.subs = slices.DeleteFunc(slices.Clone(m.subs), func(s subscriber) bool {
			return s.id == id
		})
	}
}

func (m *Modem) broadcast(frame []byte) {
	m.subsMu.Lock()
	subs := m.subs
	m.subsMu.Unlock()

	for _, s := range subs {
		s.fn(frame)
	}
}

// PostCommand injects an externally triggered event such as an incoming
// call.
func (m *Modem) PostCommand(ctx context.Context, cmd Command, opts CommandOptions) error {
	return m.do(ctx, func(e *Engine) error {
		return e.PostCommand(cmd, opts)
	})
}

// SetCardPresent inserts or removes the virtual SIM card.
func (m *Modem) SetCardPresent(ctx context.Context, present bool) error {
	return m.do(ctx, func(e *Engine) error {
		e.SetCardPresent(present)
		return nil
	})
}

// Snapshot returns a summary of the simulated device.
func (m *Modem) Snapshot(ctx context.Context) (device.Snapshot, error) {
	var snap device.Snapshot
	err := m.do(ctx, func(e *Engine) error {
		snap = e.Snapshot()
		return nil
	})
	return snap, err
}

// Serve connects transport to the modem: request frames read from it are
// submitted to the Loop and every outbound frame is written back. Outbound
// frames are queued; when a slow transport lets the queue fill up, frames
// are dropped. Serve closes transport and returns when the context is
// cancelled, the modem is closed, or the transport fails.
func (m *Modem) Serve(ctx context.Context, transport Transport) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer transport.Close()

	log := m.config.Logger.With("component", "transport", "slot", m.config.Profile.Slot)
	outbound := make(chan []byte, m.config.OutboundQueue)
	unsubscribe := m.OnFrame(func(frame []byte) {
		select {
		case outbound <- frame:
		default:
			log.Warn("outbound queue full, dropping frame", "bytes", len(frame))
		}
	})
	defer unsubscribe()

	errc := make(chan error, 2)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-outbound:
				if _, err := transport.Write(frame); err != nil {
					errc <- fmt.Errorf("write frame: %w", err)
					return
				}
			}
		}
	}()

	go func() {
		scanner := ril.NewScanner(transport)
		for scanner.Scan() {
			if err := m.SubmitFrame(ctx, scanner.Bytes()); err != nil {
				errc <- err
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- fmt.Errorf("read frame: %w", err)
			return
		}
		errc <- io.EOF
	}()

	log.Info("serving transport")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrAlreadyClosed
	case err := <-errc:
		if errors.Is(err, io.EOF) {
			log.Info("transport closed by peer")
		}
		return err
	}
}

// ServeDialer dials the configured Dialer and serves the transport it
// returns.
func (m *Modem) ServeDialer(ctx context.Context) error {
	if m.config.Dialer == nil {
		return ErrNoDialer
	}
	transport, err := m.config.Dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	return m.Serve(ctx, transport)
}

// Close shuts down the modem. It stops the event loop and every Serve call.
// After calling Close(), the modem cannot be reused.
func (m *Modem) Close() error {
	if m.closed.Swap(true) {
		return ErrAlreadyClosed
	}
	close(m.done)
	return nil
}
