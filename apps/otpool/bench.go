//
// bench.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/markkurossi/otpool/actor"
	"github.com/markkurossi/otpool/config"
	"github.com/markkurossi/otpool/ot"
	"github.com/markkurossi/otpool/p2p"
	"golang.org/x/sync/errgroup"
)

// bench runs a sender and receiver pair over in-memory channels.
type bench struct {
	cfg    *config.File
	splits int
	size   int
	opts   []actor.Option
}

type split struct {
	id      string
	data    []ot.Wire
	choices []bool
}

func (b *bench) run(ctx context.Context) (rep *report, err error) {
	if b.splits <= 0 || b.size <= 0 {
		return nil, errors.Newf("invalid splits %d and size %d",
			b.splits, b.size)
	}
	splits, err := b.inputs()
	if err != nil {
		return nil, err
	}

	rep = &report{
		timing: NewTiming(),
	}
	mux := p2p.NewMockFactory()

	sender, receiver, err := actor.CreatePair(ctx, actor.GoExecutor{},
		mux, mux, b.cfg.Sender, b.cfg.Receiver, b.opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		var closeErr *multierror.Error
		closeErr = multierror.Append(closeErr, sender.Close(ctx))
		closeErr = multierror.Append(closeErr, receiver.Close(ctx))
		if cerr := closeErr.ErrorOrNil(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	rep.sample("Create", mux.Stats())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sender.Setup(gctx)
	})
	g.Go(func() error {
		return receiver.Setup(gctx)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	rep.sample("Setup", mux.Stats())

	if err := b.transfer(ctx, sender, receiver, splits); err != nil {
		return nil, err
	}
	rep.sample("Splits", mux.Stats())

	if b.cfg.Sender.Committed() && b.cfg.Receiver.Committed() {
		if err := sender.Reveal(ctx); err != nil {
			return nil, err
		}
		rep.sample("Reveal", mux.Stats())

		for _, s := range splits {
			if err := receiver.Verify(ctx, s.id, s.data); err != nil {
				return nil, err
			}
		}
		rep.sample("Verify", mux.Stats())
	}

	rep.sender, err = sender.Status(ctx)
	if err != nil {
		return nil, err
	}
	rep.receiver, err = receiver.Status(ctx)
	if err != nil {
		return nil, err
	}
	rep.stats = mux.Stats()

	return rep, nil
}

func (b *bench) inputs() ([]*split, error) {
	var result []*split
	for i := 0; i < b.splits; i++ {
		s := &split{
			id:      fmt.Sprintf("split-%d", i),
			data:    make([]ot.Wire, b.size),
			choices: make([]bool, b.size),
		}
		bits := make([]byte, (b.size+7)/8)
		if _, err := rand.Read(bits); err != nil {
			return nil, err
		}
		for j := range s.data {
			l0, err := ot.NewLabel(rand.Reader)
			if err != nil {
				return nil, err
			}
			l1, err := ot.NewLabel(rand.Reader)
			if err != nil {
				return nil, err
			}
			s.data[j] = ot.Wire{
				L0: l0,
				L1: l1,
			}
			s.choices[j] = bits[j/8]&(1<<(j%8)) != 0
		}
		result = append(result, s)
	}
	return result, nil
}

// transfer sends all splits concurrently. The receiver follows the
// order in which the sender assigns the splits.
func (b *bench) transfer(ctx context.Context, sender actor.SenderControl,
	receiver actor.ReceiverControl, splits []*split) error {

	byID := make(map[string]*split)
	for _, s := range splits {
		byID[s.id] = s
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range splits {
		s := s
		g.Go(func() error {
			return sender.Send(gctx, s.id, s.data)
		})
	}
	g.Go(func() error {
		for range splits {
			asg, err := receiver.NextAssignment(gctx)
			if err != nil {
				return err
			}
			s, ok := byID[asg.ID]
			if !ok {
				return errors.Newf("unexpected assignment %v", asg)
			}
			labels, err := receiver.Receive(gctx, s.id, s.choices)
			if err != nil {
				return err
			}
			for i, l := range labels {
				if !l.Equal(s.data[i].Select(s.choices[i])) {
					return errors.Newf("%s: label %d mismatch", s.id, i)
				}
			}
		}
		return nil
	})
	return g.Wait()
}
