//
// msg.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"context"
	"time"

	"github.com/markkurossi/otpool/ot"
)

const mailboxSize = 64

// result is the reply of one control request.
type result struct {
	labels     []ot.Label
	assignment Assignment
	status     Status
	err        error
}

// Control requests.

type setupReq struct {
	ctx   context.Context
	reply chan result
}

type sendReq struct {
	ctx   context.Context
	id    string
	data  []ot.Wire
	reply chan result
}

type receiveReq struct {
	ctx     context.Context
	id      string
	choices []bool
	reply   chan result
}

type revealReq struct {
	ctx   context.Context
	reply chan result
}

type verifyReq struct {
	ctx   context.Context
	id    string
	data  []ot.Wire
	reply chan result
}

type statusReq struct {
	reply chan result
}

type nextReq struct {
	ctx   context.Context
	reply chan result
}

type closeReq struct {
	reply chan result
}

// Internal events from worker goroutines.

type setupDone struct {
	err     error
	elapsed time.Duration
}

type sendDone struct {
	id  string
	err error
}

type receiveDone struct {
	id  string
	err error
}

type peerMsg struct {
	msg *message
}

type peerErr struct {
	err error
}

func newReply() chan result {
	return make(chan result, 1)
}

// post delivers the event to the actor's mailbox unless the actor has
// terminated.
func post(mailbox chan<- interface{}, done <-chan struct{},
	msg interface{}) bool {

	select {
	case mailbox <- msg:
		return true
	case <-done:
		return false
	}
}

// call submits the request to the actor and waits for its reply.
func call(ctx context.Context, mailbox chan<- interface{},
	done <-chan struct{}, req interface{}, reply <-chan result) result {

	if mailbox == nil {
		return result{
			err: ErrClosed,
		}
	}
	select {
	case mailbox <- req:
	case <-done:
		return result{
			err: ErrClosed,
		}
	case <-ctx.Done():
		return result{
			err: ctx.Err(),
		}
	}
	select {
	case r := <-reply:
		return r
	case <-done:
		select {
		case r := <-reply:
			return r
		default:
			return result{
				err: ErrClosed,
			}
		}
	case <-ctx.Done():
		return result{
			err: ctx.Err(),
		}
	}
}
