package main

import (
	"context"
	"os"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/ws1001/cmd/ws1001/subcmd"
	"github.com/temoto/ws1001/internal/config"
	"github.com/temoto/ws1001/internal/metrics"
	"github.com/temoto/ws1001/poller"
	"github.com/temoto/ws1001/session"
	"github.com/temoto/ws1001/tele"
)

var observeMod = subcmd.Mod{
	Name:  "observe",
	Usage: "discover console and print records every poll interval (default)",
	Main:  observeMain,
}

type observer struct {
	tele    *tele.Tele
	metrics *metrics.Metrics
	out     *recordPrinter
}

func observeMain(ctx context.Context, cfg *config.Config, args []string) error {
	o := observer{out: newRecordPrinter(os.Stdout)}
	if cfg.Metrics.Enabled {
		o.metrics = metrics.New()
		log.SetErrorFunc(o.metrics.CountError)
		go func() {
			if err := o.metrics.Serve(ctx, cfg.Metrics.Addr(), log); err != nil && ctx.Err() == nil {
				log.Error(err)
			}
		}()
	}
	if cfg.Tele.Enabled {
		o.tele = tele.New(cfg.Tele, log)
		o.tele.Start(ctx)
		defer o.tele.Close()
	}

	o.state(session.StateDiscovering)
	p, err := poller.Open(ctx, cfg.PollInterval(), cfg.SessionOptions(log))
	if err != nil {
		o.state(session.StateFailed)
		return errors.Annotate(err, "observe")
	}
	defer p.Close()
	s := p.Source().(*session.Session)
	if o.metrics != nil {
		o.metrics.SetSession(s)
	}
	o.state(s.State())
	subcmd.SdNotify(daemon.SdNotifyReady)
	log.Infof("console=%v poll interval=%v", s.RemoteAddr(), cfg.PollInterval())

	for item := range p.Stream(ctx) {
		if o.metrics != nil {
			o.metrics.Observe(item, time.Now())
		}
		if item.Err != nil {
			o.state(s.State())
			log.Infof("session stat=%s", s.Stat())
			if ctx.Err() != nil {
				return nil
			}
			return errors.Annotate(item.Err, "observe")
		}
		if item.Skip() {
			continue
		}
		if err := o.out.Print(item.Record); err != nil {
			return errors.Annotate(err, "observe output")
		}
		if o.tele != nil {
			if err := o.tele.PublishRecord(item.Record); err != nil {
				log.Error(err)
			}
		}
	}
	log.Infof("stop, session stat=%s", s.Stat())
	return nil
}

func (o *observer) state(s session.State) {
	if o.tele == nil {
		return
	}
	if err := o.tele.PublishSessionState(s); err != nil {
		log.Debugf("tele state=%s err=%v", s, err)
	}
}
