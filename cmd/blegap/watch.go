package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/blegap/internal/config"
	"github.com/srg/blegap/internal/gap"
	"github.com/srg/blegap/internal/groutine"
	"github.com/srg/blegap/internal/ringchan"
)

const watchBufferSize = 256

// watchPrinter streams merged reports to w as they arrive. Reports are
// handed over through a ring channel so the driver callback never waits on
// the terminal; when the printer falls behind the oldest reports are lost.
type watchPrinter struct {
	out     io.Writer
	format  string
	palette *palette
	logger  *logrus.Logger

	rc         *ringchan.RingChannel[*gap.ScanReport]
	unregister func()
	done       chan struct{}
}

func newWatchPrinter(out io.Writer, format string, colors bool, logger *logrus.Logger) *watchPrinter {
	return &watchPrinter{
		out:     out,
		format:  format,
		palette: newPalette(colors),
		logger:  logger,
		rc:      ringchan.New[*gap.ScanReport](watchBufferSize),
		done:    make(chan struct{}),
	}
}

// Attach subscribes to the scanner and starts the printing goroutine.
func (p *watchPrinter) Attach(s *gap.Scanner) {
	p.unregister = s.OnScanReceived().Register(func(_ *gap.Scanner, r *gap.ScanReport) {
		p.rc.Send(r)
	})

	groutine.Go(context.Background(), "scan-watch-printer", func(context.Context) {
		defer close(p.done)
		for r := range p.rc.C() {
			if err := p.print(r); err != nil {
				p.logger.WithError(err).Warn("Failed to print scan report")
			}
		}
	})
}

// Close detaches from the scanner and waits until buffered reports are printed.
func (p *watchPrinter) Close() {
	if p.unregister == nil {
		return
	}
	p.unregister()
	p.unregister = nil
	p.rc.Close()
	<-p.done

	if m := p.rc.Metrics(); m.Dropped > 0 {
		p.logger.WithFields(logrus.Fields{
			"written": m.Written,
			"dropped": m.Dropped,
		}).Warn("Watch output fell behind, some reports were not printed")
	}
}

func (p *watchPrinter) print(r *gap.ScanReport) error {
	if p.format == config.FormatJSON {
		// one object per line
		return json.NewEncoder(p.out).Encode(toPeerJSON(r))
	}

	name := r.LocalName()
	if name == "" {
		name = p.palette.dim.Sprint("(unknown)")
	}
	_, err := fmt.Fprintf(p.out, "%s  %s  %-9s  %s  %s\n",
		r.LastSeen.Format(time.TimeOnly),
		r.Address,
		p.palette.rssi(r.RSSI),
		r.PacketType,
		name,
	)
	return err
}
