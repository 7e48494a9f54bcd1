//
// report.go
//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/markkurossi/otpool/actor"
	"github.com/markkurossi/otpool/config"
	"github.com/markkurossi/otpool/p2p"
	"github.com/markkurossi/tabulate"
	"github.com/markkurossi/text/superscript"
)

// FileSize specifies a data size in bytes.
type FileSize uint64

func (s FileSize) String() string {
	if s > 1000*1000*1000*1000 {
		return fmt.Sprintf("%dTB", s/(1000*1000*1000*1000))
	} else if s > 1000*1000*1000 {
		return fmt.Sprintf("%dGB", s/(1000*1000*1000))
	} else if s > 1000*1000 {
		return fmt.Sprintf("%dMB", s/(1000*1000))
	} else if s > 1000 {
		return fmt.Sprintf("%dkB", s/1000)
	} else {
		return fmt.Sprintf("%dB", s)
	}
}

// Timing records timing samples.
type Timing struct {
	Start   time.Time
	Samples []*Sample
}

// NewTiming creates a new Timing instance.
func NewTiming() *Timing {
	return &Timing{
		Start: time.Now(),
	}
}

// Sample adds a timing sample with label and data columns.
func (t *Timing) Sample(label string, cols []string) *Sample {
	start := t.Start
	if len(t.Samples) > 0 {
		start = t.Samples[len(t.Samples)-1].End
	}
	sample := &Sample{
		Label: label,
		Start: start,
		End:   time.Now(),
		Cols:  cols,
	}
	t.Samples = append(t.Samples, sample)
	return sample
}

// Total returns the duration from start to the end of the last
// sample.
func (t *Timing) Total() time.Duration {
	if len(t.Samples) == 0 {
		return 0
	}
	return t.Samples[len(t.Samples)-1].End.Sub(t.Start)
}

// Sample contains information about one timing sample.
type Sample struct {
	Label string
	Start time.Time
	End   time.Time
	Cols  []string
}

type report struct {
	timing   *Timing
	xfer     uint64
	stats    p2p.IOStats
	sender   actor.Status
	receiver actor.Status
}

// sample adds a timing sample with the bytes transferred since the
// previous sample.
func (r *report) sample(label string, stats p2p.IOStats) {
	sum := stats.Sum()
	r.timing.Sample(label, []string{FileSize(sum - r.xfer).String()})
	r.xfer = sum
}

func (r *report) Print(w io.Writer) {
	if len(r.timing.Samples) == 0 {
		return
	}
	sent := r.stats.Sent.Load()
	received := r.stats.Recvd.Load()
	flushed := r.stats.Flushed.Load()

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Op").SetAlign(tabulate.ML)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)
	tab.Header("Xfer").SetAlign(tabulate.MR)

	total := r.timing.Total()
	for _, sample := range r.timing.Samples {
		row := tab.Row()
		row.Column(sample.Label)

		duration := sample.End.Sub(sample.Start)
		row.Column(duration.String())
		row.Column(fmt.Sprintf("%.2f%%",
			float64(duration)/float64(total)*100))

		for _, col := range sample.Cols {
			row.Column(col)
		}
	}
	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(total.String()).SetFormat(tabulate.FmtBold)
	row.Column("").SetFormat(tabulate.FmtBold)
	row.Column(FileSize(sent + received).String()).SetFormat(tabulate.FmtBold)

	row = tab.Row()
	row.Column("├╴Sent").SetFormat(tabulate.FmtItalic)
	row.Column("")
	row.Column(percent(sent, sent+received)).SetFormat(tabulate.FmtItalic)
	row.Column(FileSize(sent).String()).SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("├╴Rcvd").SetFormat(tabulate.FmtItalic)
	row.Column("")
	row.Column(percent(received, sent+received)).
		SetFormat(tabulate.FmtItalic)
	row.Column(FileSize(received).String()).SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("╰╴Flcd").SetFormat(tabulate.FmtItalic)
	row.Column("")
	row.Column("")
	row.Column(fmt.Sprintf("%v", flushed)).SetFormat(tabulate.FmtItalic)

	tab.Print(w)

	tab = tabulate.New(tabulate.UnicodeLight)
	tab.Header("Party").SetAlign(tabulate.ML)
	tab.Header("Phase").SetAlign(tabulate.ML)
	tab.Header("Total").SetAlign(tabulate.MR)
	tab.Header("Used").SetAlign(tabulate.MR)
	tab.Header("Free").SetAlign(tabulate.MR)
	tab.Header("Splits").SetAlign(tabulate.MR)

	for idx, party := range []struct {
		role   string
		status actor.Status
	}{
		{"sender", r.sender},
		{"receiver", r.receiver},
	} {
		row := tab.Row()
		row.Column(fmt.Sprintf("P%s %s", superscript.Itoa(idx), party.role))
		row.Column(party.status.Phase.String())
		row.Column(fmt.Sprintf("%d", party.status.Total))
		row.Column(fmt.Sprintf("%d", party.status.Consumed))
		row.Column(fmt.Sprintf("%d", party.status.Available))
		row.Column(fmt.Sprintf("%d", len(party.status.Allocations)))
	}
	tab.Print(w)
}

func percent(v, total uint64) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(v)/float64(total)*100)
}

func printConfig(w io.Writer, cfg *config.File) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Party").SetAlign(tabulate.ML)
	tab.Header("ID").SetAlign(tabulate.ML)
	tab.Header("Count").SetAlign(tabulate.MR)
	tab.Header("Committed").SetAlign(tabulate.ML)

	row := tab.Row()
	row.Column(fmt.Sprintf("P%s sender", superscript.Itoa(0)))
	row.Column(cfg.Sender.ID())
	row.Column(fmt.Sprintf("%d", cfg.Sender.InitialCount()))
	row.Column(fmt.Sprintf("%v", cfg.Sender.Committed()))

	row = tab.Row()
	row.Column(fmt.Sprintf("P%s receiver", superscript.Itoa(1)))
	row.Column(cfg.Receiver.ID())
	row.Column(fmt.Sprintf("%d", cfg.Receiver.InitialCount()))
	row.Column(fmt.Sprintf("%v", cfg.Receiver.Committed()))

	tab.Print(w)
}
