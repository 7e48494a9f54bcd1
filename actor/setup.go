//
// setup.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package actor implements a pair of OT pool actors. The sender and
// receiver actors provision a pool of random OTs once and then
// distribute it to named sessions ("splits") on demand. The sender
// decides the range of each split and announces it to the receiver
// over a dedicated control channel; the receiver applies the
// announcements strictly in order.
//
// In the committed mode the sender can later reveal its inputs so
// that the receiver can verify the transfers it received.
package actor

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/markkurossi/otpool/config"
	"github.com/markkurossi/otpool/log"
	"github.com/markkurossi/otpool/ot"
	"github.com/markkurossi/otpool/p2p"
	"golang.org/x/sync/errgroup"
)

// CreateSender creates a sender actor over the channel factory mux.
// It opens the control channel, starts the actor on exec and returns
// the actor's control handle.
func CreateSender(ctx context.Context, exec Executor, mux p2p.Factory,
	cfg config.Sender, opts ...Option) (SenderControl, error) {

	o := newOptions(opts)
	if o.senderEngine == nil {
		o.senderEngine = ot.NewPoolSender(nil, o.rand)
	}
	ctrl, err := mux.Open(ctx, channelName(cfg.ID(), "ctrl"))
	if err != nil {
		return SenderControl{}, errors.Mark(
			errors.Wrap(err, "open control channel"), ErrTransport)
	}
	a := newSender(cfg, exec, mux, ctrl, o)
	if err := exec.Spawn(a.run); err != nil {
		ctrl.Close()
		return SenderControl{}, errors.Mark(
			errors.Wrap(err, "spawn sender"), ErrSpawn)
	}
	return a.control(), nil
}

// CreateReceiver creates a receiver actor over the channel factory
// mux. It opens the control channel, starts the actor and its control
// channel reader on exec and returns the actor's control handle.
func CreateReceiver(ctx context.Context, exec Executor, mux p2p.Factory,
	cfg config.Receiver, opts ...Option) (ReceiverControl, error) {

	o := newOptions(opts)
	if o.receiverEngine == nil {
		o.receiverEngine = ot.NewPoolReceiver(nil, o.rand)
	}
	ctrl, err := mux.Open(ctx, channelName(cfg.ID(), "ctrl"))
	if err != nil {
		return ReceiverControl{}, errors.Mark(
			errors.Wrap(err, "open control channel"), ErrTransport)
	}
	a := newReceiver(cfg, exec, mux, ctrl, o)
	if err := exec.Spawn(a.reader); err != nil {
		ctrl.Close()
		return ReceiverControl{}, errors.Mark(
			errors.Wrap(err, "spawn receiver reader"), ErrSpawn)
	}
	if err := exec.Spawn(a.run); err != nil {
		close(a.done)
		ctrl.Close()
		return ReceiverControl{}, errors.Mark(
			errors.Wrap(err, "spawn receiver"), ErrSpawn)
	}
	return a.control(), nil
}

// CreatePair creates a connected sender and receiver. The sender
// uses senderMux and the receiver receiverMux; the two factories must
// connect the same channel ids to each other. If either actor cannot
// be created, the other one is closed.
func CreatePair(ctx context.Context, exec Executor,
	senderMux, receiverMux p2p.Factory, scfg config.Sender,
	rcfg config.Receiver, opts ...Option) (
	SenderControl, ReceiverControl, error) {

	var sender SenderControl
	var receiver ReceiverControl

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sender, err = CreateSender(gctx, exec, senderMux, scfg, opts...)
		return err
	})
	g.Go(func() error {
		var err error
		receiver, err = CreateReceiver(gctx, exec, receiverMux, rcfg,
			opts...)
		return err
	})
	err := g.Wait()
	if err == nil {
		return sender, receiver, nil
	}

	var closeErr *multierror.Error
	if sender.mailbox != nil {
		closeErr = multierror.Append(closeErr, sender.Close(ctx))
	}
	if receiver.mailbox != nil {
		closeErr = multierror.Append(closeErr, receiver.Close(ctx))
	}
	if cerr := closeErr.ErrorOrNil(); cerr != nil {
		err = errors.WithSecondaryError(err, cerr)
	}
	return SenderControl{}, ReceiverControl{}, err
}

func channelName(id, name string) string {
	return fmt.Sprintf("%s/ot/%s", id, name)
}

func splitChannelName(id, session string) string {
	return fmt.Sprintf("%s/ot/split/%s", id, session)
}

// abortSplit opens and closes our end of the split channel so that
// the peer's exchange for the split fails instead of waiting for us.
func abortSplit(mux p2p.Factory, id, session string, l log.Logger) {
	conn, err := mux.Open(context.Background(), splitChannelName(id, session))
	if err != nil {
		l.Warnw("split abort failed", "session", session, "error", err)
		return
	}
	conn.Close()
}

// interruptible runs fn over conn and closes conn. Canceling ctx
// interrupts the connection so that fn returns.
func interruptible(ctx context.Context, conn *p2p.Conn,
	fn func(io ot.IO) error) error {

	stop := context.AfterFunc(ctx, func() {
		conn.Interrupt()
	})
	err := fn(conn)
	stop()
	conn.Close()
	return err
}

func actorLogger(l log.Logger, role, id string) log.Logger {
	return l.Named(role).With("actor", id, "instance", uuid.NewString())
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
