//
// receiver.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"bytes"
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/otpool/config"
	"github.com/markkurossi/otpool/log"
	"github.com/markkurossi/otpool/ot"
	"github.com/markkurossi/otpool/p2p"
	"github.com/markkurossi/otpool/pool"
)

const roleReceiver = "receiver"

// Receiver implements the receiver actor. It owns the receiver half
// of the OT pool and applies the sender's assignments strictly in the
// order the sender issued them.
type Receiver struct {
	cfg     config.Receiver
	exec    Executor
	mux     p2p.Factory
	ctrl    *p2p.Conn
	engine  ReceiverEngine
	log     log.Logger
	metrics *Metrics
	mailbox chan interface{}
	done    chan struct{}

	st       state
	nextSeq  uint64
	queue    []Assignment
	waiting  []*receiveReq
	nexts    []*nextReq
	verifies []*verifyReq
	ctrlErr  error
	inFlight int
}

type receiverReady struct {
	pool     *pool.Pool
	sessions map[string]*session
	reveals  map[string]RevealEntry
}

func (*receiverReady) phase() Phase {
	return PhaseReady
}

// session is a claimed assignment. Its range is kept by the pool.
type session struct {
	commitment []byte
	done       bool
	err        error
}

func newReceiver(cfg config.Receiver, exec Executor, mux p2p.Factory,
	ctrl *p2p.Conn, o *options) *Receiver {

	return &Receiver{
		cfg:     cfg,
		exec:    exec,
		mux:     mux,
		ctrl:    ctrl,
		engine:  o.receiverEngine,
		log:     actorLogger(o.log, roleReceiver, cfg.ID()),
		metrics: o.metrics,
		mailbox: make(chan interface{}, mailboxSize),
		done:    make(chan struct{}),
		st:      initState{},
	}
}

func (a *Receiver) control() ReceiverControl {
	return ReceiverControl{
		id:      a.cfg.ID(),
		mailbox: a.mailbox,
		done:    a.done,
		metrics: a.metrics,
	}
}

// reader forwards the sender's control messages to the mailbox.
func (a *Receiver) reader() {
	for {
		msg, err := readMessage(a.ctrl)
		if err != nil {
			post(a.mailbox, a.done, &peerErr{err: err})
			return
		}
		if !post(a.mailbox, a.done, &peerMsg{msg: msg}) {
			return
		}
	}
}

func (a *Receiver) run() {
	a.log.Debugw("actor started")
	for msg := range a.mailbox {
		switch m := msg.(type) {
		case *setupReq:
			a.setup(m)

		case *setupDone:
			a.setupDone(m)

		case *receiveReq:
			a.receive(m)

		case *receiveDone:
			a.receiveDone(m)

		case *nextReq:
			a.next(m)

		case *verifyReq:
			a.verify(m)

		case *peerMsg:
			a.peer(m.msg)

		case *peerErr:
			a.peerErr(m.err)

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

func (a *Receiver) setup(req *setupReq) {
	switch a.st.(type) {
	case initState:
	case *receiverReady:
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

func (a *Receiver) setupDone(m *setupDone) {
	st, ok := a.st.(*settingUp)
	if !ok {
		return
	}
	n := a.cfg.InitialCount()
	if m.err != nil {
		a.fail(engineError(m.err, "setup of %d OTs", n))
		return
	}
	a.st = &receiverReady{
		pool:     pool.New(n),
		sessions: make(map[string]*session),
		reveals:  make(map[string]RevealEntry),
	}
	a.metrics.setPool(roleReceiver, a.cfg.ID(), n, 0)
	a.log.Infow("pool ready", "count", n, "elapsed", m.elapsed)

	st.req.reply <- result{}
}

func (a *Receiver) ready() (*receiverReady, error) {
	st, ok := a.st.(*receiverReady)
	if !ok {
		return nil, stateError(a.st)
	}
	return st, nil
}

func (a *Receiver) receive(req *receiveReq) {
	if _, err := a.ready(); err != nil {
		req.reply <- result{err: err}
		return
	}
	a.waiting = append(a.waiting, req)
	a.match()
}

// match pairs waiting receive calls with the sender's assignments in
// order.
func (a *Receiver) match() {
	for len(a.waiting) > 0 && len(a.queue) > 0 {
		req := a.waiting[0]
		a.waiting = a.waiting[1:]
		if req.ctx.Err() != nil {
			continue
		}
		asg := a.queue[0]
		a.queue = a.queue[1:]
		a.claim(req, asg)
	}
	if a.ctrlErr != nil && len(a.queue) == 0 {
		for _, req := range a.waiting {
			req.reply <- result{err: a.ctrlErr}
		}
		a.waiting = nil
	}
}

func (a *Receiver) claim(req *receiveReq, asg Assignment) {
	st, err := a.ready()
	if err != nil {
		req.reply <- result{err: err}
		return
	}
	r := asg.Range()

	if asg.ID != req.id {
		err := errors.Wrapf(ErrOrderMismatch,
			"receive %q, next assignment %v", req.id, asg)
		abortSplit(a.mux, a.cfg.ID(), asg.ID, a.log)
		req.reply <- result{err: err}
		a.fail(err)
		return
	}
	if err := st.pool.Apply(asg.ID, r); err != nil {
		abortSplit(a.mux, a.cfg.ID(), asg.ID, a.log)
		req.reply <- result{err: err}
		a.fail(err)
		return
	}
	a.metrics.setPool(roleReceiver, a.cfg.ID(), st.pool.Total(),
		st.pool.Consumed())

	sess := &session{
		commitment: asg.Commitment,
	}
	st.sessions[asg.ID] = sess

	if len(req.choices) != r.Len() {
		err := errors.Wrapf(ErrLengthMismatch,
			"session %q: %d choices for range %v", req.id, len(req.choices), r)
		sess.done = true
		sess.err = err
		abortSplit(a.mux, a.cfg.ID(), asg.ID, a.log)
		a.log.Warnw("split aborted", "session", req.id, "range", r,
			"class", Classify(err))
		req.reply <- result{err: err}
		return
	}
	a.log.Debugw("split claimed", "session", req.id, "range", r,
		"seq", asg.Seq)

	choices := make([]bool, len(req.choices))
	copy(choices, req.choices)

	a.inFlight++
	err = a.exec.Spawn(func() {
		a.exchange(req, r, choices)
	})
	if err != nil {
		a.inFlight--
		err = errors.Mark(errors.Wrapf(err, "session %q", req.id), ErrSpawn)
		sess.done = true
		sess.err = err
		abortSplit(a.mux, a.cfg.ID(), asg.ID, a.log)
		req.reply <- result{err: err}
	}
}

// exchange runs in a worker task.
func (a *Receiver) exchange(req *receiveReq, r pool.Range, choices []bool) {
	labels, err := a.transfer(req.ctx, req.id, r, choices)
	post(a.mailbox, a.done, &receiveDone{
		id:  req.id,
		err: err,
	})
	req.reply <- result{
		labels: labels,
		err:    err,
	}
}

func (a *Receiver) transfer(ctx context.Context, id string, r pool.Range,
	choices []bool) ([]ot.Label, error) {

	conn, err := a.mux.Open(ctx, splitChannelName(a.cfg.ID(), id))
	if err != nil {
		abortSplit(a.mux, a.cfg.ID(), id, a.log)
		return nil, errors.Mark(errors.Wrapf(err, "session %q", id),
			ErrTransport)
	}
	var labels []ot.Label
	err = interruptible(ctx, conn, func(io ot.IO) error {
		var err error
		labels, err = a.engine.Receive(io, r.Start, choices)
		return err
	})
	if err != nil {
		return nil, engineError(err, "session %q", id)
	}
	return labels, nil
}

func (a *Receiver) receiveDone(m *receiveDone) {
	a.inFlight--
	if m.err != nil {
		a.log.Warnw("split failed", "session", m.id,
			"class", Classify(m.err), "error", m.err)
	}
	st, ok := a.st.(*receiverReady)
	if !ok {
		return
	}
	sess, ok := st.sessions[m.id]
	if !ok {
		return
	}
	sess.done = true
	sess.err = m.err
	a.checkVerifies()
}

func (a *Receiver) next(req *nextReq) {
	switch {
	case len(a.queue) > 0:
		req.reply <- result{assignment: a.queue[0]}
	case a.ctrlErr != nil:
		req.reply <- result{err: a.ctrlErr}
	default:
		if _, ok := a.st.(failedState); ok {
			req.reply <- result{err: stateError(a.st)}
			return
		}
		a.nexts = append(a.nexts, req)
	}
}

func (a *Receiver) answerNexts() {
	if len(a.queue) == 0 {
		return
	}
	for _, req := range a.nexts {
		req.reply <- result{assignment: a.queue[0]}
	}
	a.nexts = nil
}

func (a *Receiver) peer(msg *message) {
	switch {
	case msg.Assignment != nil:
		asg := *msg.Assignment
		if asg.Seq != a.nextSeq+1 {
			a.fail(errors.Wrapf(ErrOrderMismatch,
				"assignment %v, expected sequence %d", asg, a.nextSeq+1))
			return
		}
		a.nextSeq = asg.Seq
		a.queue = append(a.queue, asg)
		a.match()
		a.answerNexts()

	case msg.Reveal != nil:
		st, ok := a.st.(*receiverReady)
		if !ok || !a.cfg.Committed() {
			a.log.Warnw("reveal dropped", "phase", a.st.phase(),
				"committed", a.cfg.Committed())
			return
		}
		for _, e := range msg.Reveal.Entries {
			if _, ok := st.sessions[e.ID]; !ok {
				a.log.Warnw("reveal for unknown session", "session", e.ID,
					"class", ClassState)
				continue
			}
			st.reveals[e.ID] = e
		}
		a.checkVerifies()
	}
}

func (a *Receiver) peerErr(err error) {
	a.log.Debugw("control channel closed", "error", err)
	a.ctrlErr = errors.Mark(errors.Wrap(err, "control channel"),
		ErrTransport)

	a.match()
	if len(a.queue) == 0 {
		for _, req := range a.nexts {
			req.reply <- result{err: a.ctrlErr}
		}
		a.nexts = nil
	}
	a.checkVerifies()
}

func (a *Receiver) verify(req *verifyReq) {
	if !a.cfg.Committed() {
		req.reply <- result{err: ErrNotCommitted}
		return
	}
	st, err := a.ready()
	if err != nil {
		req.reply <- result{err: err}
		return
	}
	r, ok := st.pool.Lookup(req.id)
	if !ok {
		req.reply <- result{
			err: errors.Wrapf(ErrUnknownSession, "session %q", req.id),
		}
		return
	}
	if len(req.data) != r.Len() {
		req.reply <- result{
			err: errors.Wrapf(ErrLengthMismatch, "session %q: %d inputs for %v",
				req.id, len(req.data), r),
		}
		return
	}
	a.verifies = append(a.verifies, req)
	a.checkVerifies()
}

// checkVerifies answers the verify calls whose session has completed
// and whose reveal has arrived.
func (a *Receiver) checkVerifies() {
	st, ok := a.st.(*receiverReady)
	if !ok {
		return
	}
	var runnable, keep []*verifyReq
	for _, req := range a.verifies {
		if req.ctx.Err() != nil {
			continue
		}
		sess := st.sessions[req.id]
		_, revealed := st.reveals[req.id]
		switch {
		case sess.done && sess.err != nil:
			req.reply <- result{
				err: errors.Wrapf(sess.err, "verify %q", req.id),
			}
		case sess.done && revealed:
			runnable = append(runnable, req)
		case !revealed && a.ctrlErr != nil:
			req.reply <- result{err: a.ctrlErr}
		default:
			keep = append(keep, req)
		}
	}
	a.verifies = keep

	for _, req := range runnable {
		if _, err := a.ready(); err != nil {
			req.reply <- result{err: err}
			continue
		}
		err := a.check(st, req.id, req.data)
		if err != nil && errors.Is(err, ErrVerificationFailed) {
			a.log.Errorw("verification failed", "session", req.id,
				"class", ClassVerify, "error", err)
			req.reply <- result{err: err}
			a.fail(err)
			continue
		}
		req.reply <- result{err: err}
	}
}

func (a *Receiver) check(st *receiverReady, id string, data []ot.Wire) error {
	sess := st.sessions[id]
	entry := st.reveals[id]
	rng, _ := st.pool.Lookup(id)

	if entry.Start != rng.Start || entry.End != rng.End {
		return errors.Wrapf(ErrVerificationFailed,
			"session %q: revealed range [%d,%d), assigned %v",
			id, entry.Start, entry.End, rng)
	}
	revealed, err := decodeWires(entry.Data)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "session %q", id),
			ErrVerificationFailed)
	}
	pads, err := decodeWires(entry.Pads)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "session %q", id),
			ErrVerificationFailed)
	}
	if !bytes.Equal(commitment(id, rng, revealed), sess.commitment) {
		return errors.Wrapf(ErrVerificationFailed,
			"session %q: revealed inputs do not match commitment", id)
	}
	if !equalWires(revealed, data) {
		return errors.Wrapf(ErrVerificationFailed,
			"session %q: inputs differ from the revealed inputs", id)
	}
	if err := a.engine.Verify(rng.Start, pads, data); err != nil {
		if errors.Is(err, ot.ErrVerify) {
			return errors.Mark(errors.Wrapf(err, "session %q", id),
				ErrVerificationFailed)
		}
		return engineError(err, "verify %q", id)
	}
	a.log.Infow("session verified", "session", id, "range", rng)
	return nil
}

func (a *Receiver) status() Status {
	s := Status{
		Phase:    a.st.phase(),
		InFlight: a.inFlight,
		Pending:  len(a.queue),
	}
	switch st := a.st.(type) {
	case *receiverReady:
		s.Total = st.pool.Total()
		s.Consumed = st.pool.Consumed()
		s.Available = st.pool.Available()
		s.Allocations = st.pool.Allocations()
	case failedState:
		s.Err = st.err
	}
	return s
}

// fail poisons the pairing. All pending calls fail with err.
func (a *Receiver) fail(err error) {
	a.log.Errorw("actor failed", "class", Classify(err), "error", err)
	abortSetup(a.st, err)
	a.st = failedState{
		err: err,
	}
	poisoned := stateError(a.st)
	for _, req := range a.waiting {
		req.reply <- result{err: poisoned}
	}
	a.waiting = nil
	for _, req := range a.nexts {
		req.reply <- result{err: poisoned}
	}
	a.nexts = nil
	for _, req := range a.verifies {
		req.reply <- result{err: poisoned}
	}
	a.verifies = nil
}

func (a *Receiver) shutdown() error {
	abortSetup(a.st, ErrClosed)
	a.st = closedState{}
	for _, req := range a.waiting {
		req.reply <- result{err: ErrClosed}
	}
	for _, req := range a.nexts {
		req.reply <- result{err: ErrClosed}
	}
	for _, req := range a.verifies {
		req.reply <- result{err: ErrClosed}
	}
	a.waiting, a.nexts, a.verifies = nil, nil, nil

	close(a.done)
	err := a.ctrl.Close()
	a.log.Debugw("actor closed")
	return err
}

// ReceiverControl is the handle of a receiver actor. Copies of the
// handle refer to the same actor and may be used concurrently.
type ReceiverControl struct {
	id      string
	mailbox chan<- interface{}
	done    <-chan struct{}
	metrics *Metrics
}

// ID returns the receiver's channel namespace.
func (c ReceiverControl) ID() string {
	return c.id
}

// Setup provisions the configured number of OTs with the sender. It
// fails with ErrAlreadySetup if the pool is already set up or a setup
// is running. Canceling ctx interrupts the setup and leaves the actor
// failed.
func (c ReceiverControl) Setup(ctx context.Context) error {
	start := time.Now()
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &setupReq{
		ctx:   ctx,
		reply: reply,
	}, reply)
	c.metrics.observe(roleReceiver, "setup", start, r.err)
	return r.err
}

// Receive receives the labels selected by choices for the session
// id. The call is matched against the sender's next assignment: if
// the assignment is for a different session, Receive fails with
// ErrOrderMismatch and the pairing can no longer be used.
func (c ReceiverControl) Receive(ctx context.Context, id string,
	choices []bool) ([]ot.Label, error) {

	start := time.Now()
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &receiveReq{
		ctx:     ctx,
		id:      id,
		choices: choices,
		reply:   reply,
	}, reply)
	c.metrics.observe(roleReceiver, "receive", start, r.err)
	return r.labels, r.err
}

// NextAssignment returns the sender's next unclaimed assignment
// without claiming it. It blocks until the assignment arrives.
func (c ReceiverControl) NextAssignment(ctx context.Context) (
	Assignment, error) {

	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &nextReq{
		ctx:   ctx,
		reply: reply,
	}, reply)
	return r.assignment, r.err
}

// Verify verifies the session id against the sender's revealed
// inputs data. It waits until the sender reveals the session and the
// local transfer finishes. The session must already be claimed with
// Receive: Verify of an unclaimed id fails at once with
// ErrUnknownSession instead of waiting.
func (c ReceiverControl) Verify(ctx context.Context, id string,
	data []ot.Wire) error {

	start := time.Now()
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &verifyReq{
		ctx:   ctx,
		id:    id,
		data:  data,
		reply: reply,
	}, reply)
	c.metrics.observe(roleReceiver, "verify", start, r.err)
	return r.err
}

// Status returns the actor's status.
func (c ReceiverControl) Status(ctx context.Context) (Status, error) {
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &statusReq{
		reply: reply,
	}, reply)
	return r.status, r.err
}

// Close stops the actor and closes its control channel.
func (c ReceiverControl) Close(ctx context.Context) error {
	reply := newReply()
	r := call(ctx, c.mailbox, c.done, &closeReq{
		reply: reply,
	}, reply)
	if errors.Is(r.err, ErrClosed) {
		return nil
	}
	return r.err
}
