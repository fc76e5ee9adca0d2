package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chase3718/serimidi/bridge"
	"github.com/chase3718/serimidi/midi/virtual"
	"github.com/chase3718/serimidi/serialport"
)

// logger is the process-wide structured logger. Safe to use before initLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	os.Exit(run())
}

func run() int {
	debug := flag.Bool("debug", false, "enable debug logging (adds source location)")
	serialDev := flag.String("serial", "", "serial port device (empty: choose from a list)")
	baud := flag.Int("baud", serialport.DefaultBaudRate, "serial baud rate")
	readTimeout := flag.Duration("read-timeout", serialport.DefaultReadTimeout, "serial read timeout per poll")
	name := flag.String("name", "serimidi", "base name of the virtual MIDI ports")
	onSinkError := flag.String("on-sink-error", bridge.SinkAbort.String(), "when MIDI out fails: abort or continue")
	list := flag.Bool("list", false, "list serial ports and exit")
	flag.Parse()

	initLogger(*debug)

	if *list {
		ports, err := serialport.List()
		if err != nil {
			logger.Error("serial: list ports failed", "err", err)
			return 1
		}
		serialport.WriteList(os.Stdout, ports)
		return 0
	}

	policy, err := bridge.ParseSinkPolicy(*onSinkError)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}

	logger.Info("serimidi starting",
		"serial", *serialDev,
		"baud", *baud,
		"read_timeout", *readTimeout,
		"name", *name,
		"on_sink_error", policy.String(),
		"debug", *debug,
	)

	device := *serialDev
	if device == "" {
		device, err = serialport.Prompt(os.Stdin, os.Stdout)
		if err != nil {
			logger.Error("serial: no port selected", "err", err)
			return 1
		}
	}

	sp, err := serialport.Open(serialport.Config{
		Device:      device,
		BaudRate:    *baud,
		ReadTimeout: *readTimeout,
	}, logger)
	if err != nil {
		logger.Error("serial: failed to open port", "device", device, "err", err)
		return 1
	}
	defer sp.Close()

	ports, err := virtual.Open(*name, logger)
	if err != nil {
		logger.Error("midi: virtual ports failed", "err", err)
		return 1
	}
	defer ports.Close()

	b := bridge.New(sp, ports, bridge.WithLogger(logger), bridge.WithSinkPolicy(policy))
	if err := ports.Listen(b.Relay.Receive); err != nil {
		logger.Error("midi: listen failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running, receiving data", "device", device, "baud", *baud)
	if err := b.Run(ctx); err != nil {
		logger.Error("bridge: fatal error", "err", err)
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}
