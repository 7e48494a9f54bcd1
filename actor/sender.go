//
// sender.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/otpool/config"
	"github.com/markkurossi/otpool/log"
	"github.com/markkurossi/otpool/ot"
	"github.com/markkurossi/otpool/p2p"
	"github.com/markkurossi/otpool/pool"
)

const roleSender = "sender"

// Sender implements the sender actor. It owns the sender half of the
// OT pool and decides how the pool is split between sessions.
type Sender struct {
	cfg     config.Sender
	exec    Executor
	mux     p2p.Factory
	ctrl    *p2p.Conn
	engine  SenderEngine
	log     log.Logger
	metrics *Metrics
	mailbox chan interface{}
	done    chan struct{}

	st       state
	seq      uint64
	inFlight int
}

type senderReady struct {
	pool    *pool.Pool
	records map[string]*record
	order   []string
}

func (*senderReady) phase() Phase {
	return PhaseReady
}

// record holds the committed inputs of one session until they are
// revealed.
type record struct {
	rng  pool.Range
	data []ot.Wire
	done bool
}

func newSender(cfg config.Sender, exec Executor, mux p2p.Factory,
	ctrl *p2p.Conn, o *options) *Sender {

	return &Sender{
		cfg:     cfg,
		exec:    exec,
		mux:     mux,
		ctrl:    ctrl,
		engine:  o.senderEngine,
		log:     actorLogger(o.log, roleSender, cfg.ID()),
		metrics: o.metrics,
		mailbox: make(chan interface{}, mailboxSize),
		done:    make(chan struct{}),
		st:      initState{},
	}
}

func (a *Sender) control() SenderControl {
	return SenderControl{
		id:      a.cfg.ID(),
		mailbox: a.mailbox,
		done:    a.done,
		metrics: a.metrics,
	}
}

func (a *Sender) run() {
	a.log.Debugw("actor started")
	for msg := range a.mailbox {
		switch m := msg.(type) {
		case *setupReq:
			a.setup(m)

		case *setupDone:
			a.setupDone(m)

		case *sendReq:
			a.send(m)

		case *sendDone:
			a.sendDone(m)

		case *revealReq:
			m.reply <- result{err: a.reveal()}

		case *statusReq:
			m.reply <- result{status: a.status()}

		case *closeReq:
			m.reply <- result{err: a.shutdown()}
			return

		default:
			a.log.Errorw("unexpected message", "type", typeName(msg))
		}
	}
}

func (a *Sender) setup(req *setupReq) {
	switch a.st.(type) {
	case initState:
	case *senderReady:
		req.reply <- result{err: ErrAlreadySetup}
		return
	case *settingUp:
		req.reply <- result{err: errors.Wrap(ErrAlreadySetup,
			"setup in progress")}
		return
	default:
		req.reply <- result{err: stateError(a.st)}
		return
	}
	prev := take(&a.st)

	conn, err := a.mux.Open(req.ctx, channelName(a.cfg.ID(), "setup"))
	if err != nil {
		a.st = prev
		req.reply <- result{err: errors.Mark(
			errors.Wrap(err, "open setup channel"), ErrTransport)}
		return
	}
	n := a.cfg.InitialCount()
	err = a.exec.Spawn(func() {
		start := time.Now()
		err := interruptible(req.ctx, conn, func(io ot.IO) error {
			return a.engine.Setup(io, n)
		})
		post(a.mailbox, a.done, &setupDone{
			err:     err,
			elapsed: time.Since(start),
		})
	})
	if err != nil {
		conn.Close()
		a.st = prev
		req.reply <- result{err: errors.Mark(
			errors.Wrap(err, "setup"), ErrSpawn)}
		return
	}
	a.st = &settingUp{
		req:  req,
		conn: conn,
	}
}

func (a *Sender) setupDone(m *setupDone) {
	st, ok := a.st.(*settingUp)
	if !ok {
		return
	}
	n := a.cfg.InitialCount()
	if m.err != nil {
		a.fail(engineError(m.err, "setup of %d OTs", n))
		return
	}
	a.st = &senderReady{
		pool:    pool.New(n),
		records: make(map[string]*record),
	}
	a.metrics.setPool(roleSender, a.cfg.ID(), n, 0)
	a.log.Infow("pool ready", "count", n, "elapsed", m.elapsed)

	st.req.reply <- result{}
}

func (a *Sender) ready() (*senderReady, error) {
	st, ok := a.st.(*senderReady)
	if !ok {
		return nil, stateError(a.st)
	}
	return st, nil
}

func (a *Sender) send(req *sendReq) {
	st, err := a.ready()
	if err != nil {
		req.reply <- result{err: err}
		return
	}
	r, err := st.pool.Reserve(req.id, len(req.data))
	if err != nil {
		a.log.Warnw("reservation failed", "session", req.id,
			"class", Classify(err), "error", err)
		req.reply <- result{err: err}
		return
	}
	a.metrics.setPool(roleSender, a.cfg.ID(), st.pool.Total(),
		st.pool.Consumed())

	data := make([]ot.Wire, len(req.data))
	copy(data, req.data)

	var commit []byte
	if a.cfg.Committed() {
		st.records[req.id] = &record{
			rng:  r,
			data: data,
		}
		st.order = append(st.order, req.id)
		commit = commitment(req.id, r, data)
	}

	a.seq++
	asg := &Assignment{
		Seq:        a.seq,
		ID:         req.id,
		Start:      r.Start,
		End:        r.End,
		Commitment: commit,
	}
	if err := writeMessage(a.ctrl, &message{Assignment: asg}); err != nil {
		err = errors.Mark(errors.Wrapf(err, "assignment %v", asg),
			ErrTransport)
		a.fail(err)
		req.reply <- result{err: err}
		return
	}
	a.log.Debugw("split assigned", "session", req.id, "range", r,
		"seq", a.seq)

	a.inFlight++
	err = a.exec.Spawn(func() {
		a.exchange(req, r, data)
	})
	if err != nil {
		a.inFlight--
		delete(st.records, req.id)
		abortSplit(a.mux, a.cfg.ID(), req.id, a.log)
		err = errors.Mark(errors.Wrapf(err, "session %q", req.id), ErrSpawn)
		req.reply <- result{err: err}
	}
}

// exchange runs in a worker task.
func (a *Sender) exchange(req *sendReq, r pool.Range, data []ot.Wire) {
	err := a.transfer(req.ctx, req.id, r, data)
	post(a.mailbox, a.done, &sendDone{
		id:  req.id,
		err: err,
	})
	req.reply <- result{err: err}
}

func (a *Sender) transfer(ctx context.Context, id string, r pool.Range,
	data []ot.Wire) error {

	conn, err := a.mux.Open(ctx, splitChannelName(a.cfg.ID(), id))
	if err != nil {
		abortSplit(a.mux, a.cfg.ID(), id, a.log)
		return errors.Mark(errors.Wrapf(err, "session %q", id), ErrTransport)
	}
	err = interruptible(ctx, conn, func(io ot.IO) error {
		return a.engine.Send(io, r.Start, data)
	})
	if err != nil {
		return engineError(err, "session %q", id)
	}
	return nil
}

func (a *Sender) sendDone(m *sendDone) {
	a.inFlight--
	if m.err != nil {
		a.log.Warnw("split failed", "session", m.id,
			"class", Classify(m.err), "error", m.err)
	}
	st, ok := a.st.(*senderReady)
	if !ok {
		return
	}
	rec, ok := st.records[m.id]
	if !ok {
		return
	}
	if m.err != nil {
		delete(st.records, m.id)
	} else {
		rec.done = true
	}
}

func (a *Sender) reveal() error {
	if !a.cfg.Committed() {
		return ErrNotCommitted
	}
	st, err := a.ready()
	if err != nil {
		return err
	}

	var entries []RevealEntry
	var keep []string
	for _, id := range st.order {
		rec, ok := st.records[id]
		if !ok {
			continue
		}
		if !rec.done {
			keep = append(keep, id)
			continue
		}
		pads, err := a.engine.Reveal(rec.rng.Start, rec.rng.Len())
		if err != nil {
			return engineError(err, "reveal %q", id)
		}
		entries = append(entries, RevealEntry{
			ID:    id,
			Start: rec.rng.Start,
			End:   rec.rng.End,
			Pads:  encodeWires(pads),
			Data:  encodeWires(rec.data),
		})
	}
	if len(entries) > 0 {
		msg := &message{
			Reveal: &Reveal{
				Entries: entries,
			},
		}
		if err := writeMessage(a.ctrl, msg); err != nil {
			err = errors.Mark(errors.Wrap(err, "reveal"), ErrTransport)
			a.fail(err)
			return err
		}
	}
	for _, e := range entries {
		delete(st.records, e.ID)
	}
	st.order = keep

	a.log.Infow("revealed", "sessions", len(entries), "retained", len(keep))

	return nil
}

func (a *Sender) status() Status {
	s := Status{
		Phase:    a.st.phase(),
		InFlight: a.inFlight,
	}
	switch st := a.st.(type) {
	case *senderReady:
		s.Total = st.pool.Total()
		s.Consumed = st.pool.Consumed()
		s.Available = st.pool.Available()
		s.Allocations = st.pool.Allocations()
		s.Pending = len(st.records)
	case failedState:
		s.Err = st.err
	}
	return s
}

func (a *Sender) fail(err error) {
	a.log.Errorw("actor failed", "class", Classify(err), "error", err)
	abortSetup(a.st, err)
	a.st = failedState{
		err: err,
	}
}

func (a *Sender) shutdown() error {
	abortSetup(a.st, ErrClosed)
	a.st = closedState{}
	close(a.done)
	err := a.ctrl.Close()
	a.log.Debugw("actor closed")
	return err
}

// SenderControl is the handle of a sender actor. Copies of the handle
// refer to the same actor and may be used concurrently.
type SenderControl struct {
	id      string
	mailbox chan<- interface{}
	done    <-chan struct{}
	metrics *Metrics
}

// ID returns the sender's channel namespace.
func (c SenderControl) ID() string {
	return c.id
}

// Setup provisions the configured number of OTs with the receiver.
// It fails with ErrAlreadySetup if the pool is already set up or a
// setup is running. Canceling ctx interrupts the setup and leaves the
// actor failed.
func (c SenderControl) Setup(ctx context.Context) error {
	start := time.Now()
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &setupReq{
		ctx:   ctx,
		reply: reply,
	}, reply)
	c.metrics.observe(roleSender, "setup", start, r.err)
	return r.err
}

// Send transfers data to the receiver session id. The pool range for
// the session is reserved when the actor admits the request and it
// stays consumed even if the transfer fails or ctx is canceled.
func (c SenderControl) Send(ctx context.Context, id string,
	data []ot.Wire) error {

	start := time.Now()
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &sendReq{
		ctx:   ctx,
		id:    id,
		data:  data,
		reply: reply,
	}, reply)
	c.metrics.observe(roleSender, "send", start, r.err)
	return r.err
}

// Reveal reveals the inputs of all completed sessions to the
// receiver. Sessions with a running transfer are revealed by a later
// Reveal.
func (c SenderControl) Reveal(ctx context.Context) error {
	start := time.Now()
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &revealReq{
		ctx:   ctx,
		reply: reply,
	}, reply)
	c.metrics.observe(roleSender, "reveal", start, r.err)
	return r.err
}

// Status returns the actor's status.
func (c SenderControl) Status(ctx context.Context) (Status, error) {
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &statusReq{
		reply: reply,
	}, reply)
	return r.status, r.err
}

// Close stops the actor and closes its control channel.
func (c SenderControl) Close(ctx context.Context) error {
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &closeReq{
		reply: reply,
	}, reply)
	if errors.Is(r.err, ErrClosed) {
		return nil
	}
	return r.err
}
