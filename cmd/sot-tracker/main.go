// Package main runs the single-target tracker on a pan/tilt head.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"periph.io/x/host/v3"

	"github.com/LdDl/sot-go/camera"
	"github.com/LdDl/sot-go/config"
	"github.com/LdDl/sot-go/maskdump"
	"github.com/LdDl/sot-go/servo"
	"github.com/LdDl/sot-go/sot"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
)

func main() {
	app := &cli.App{
		Name:  "sot-tracker",
		Usage: "follow a single coloured target with a pan/tilt head",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) (err error) {
	logger := golog.NewDevelopmentLogger("sot-tracker")
	if c.Bool(flagDebug) {
		logger = golog.NewDebugLogger("sot-tracker")
	}

	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}

	if cfg.Servos.Driver == servo.DriverPWM {
		if _, err := host.Init(); err != nil {
			return errors.Wrap(err, "couldn't initialise periph host drivers")
		}
	}
	pan, tilt, err := servo.New(cfg.Servos, logger)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(pan))
	defer multierr.AppendInvoke(&err, multierr.Close(tilt))

	source, err := camera.NewSource(cfg.Camera, cfg.Tracking.Width, cfg.Tracking.Height, clock.New(), cfg.Tracking.PollInterval)
	if err != nil {
		return err
	}

	var opts []sot.LoopOption
	if cfg.Dump.Enabled {
		var sink *maskdump.Sink
		if sink, err = maskdump.Open(cfg.Dump); err != nil {
			return err
		}
		defer multierr.AppendInvoke(&err, multierr.Close(sink))
		opts = append(opts, sot.WithMaskSink(sink))
	}

	loop, err := sot.NewLoop(cfg.Tracking, source, camera.NewHSVClassifier(cfg.Camera.HSV), pan, tilt, logger, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Infow("starting", "camera", cfg.Camera.Source, "servos", cfg.Servos.Driver, "dump", cfg.Dump.Enabled)
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, sot.ErrEndOfStream) {
		return err
	}
	logger.Infow("stopped", "stats", loop.Stats())
	return nil
}
