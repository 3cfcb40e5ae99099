package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sketchsynth/internal/analysis"
	"sketchsynth/internal/classify"
	"sketchsynth/internal/config"
	"sketchsynth/internal/export"
	snet "sketchsynth/internal/net"
	"sketchsynth/internal/state"
	"sketchsynth/internal/ui"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "TOML settings file")
	bridgeAddr := flag.String("bridge", "", "listen address of the synth bridge (overrides config)")
	headless := flag.Bool("headless", false, "run without a window")
	replayPath := flag.String("replay", "", "replay a sketch exported as JSON")
	monitor := flag.Bool("monitor", false, "print the features of a bridge found on the LAN and exit")
	writeConfig := flag.String("write-config", "", "write the effective settings to this file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *bridgeAddr != "" {
		cfg.Bridge.Addr = *bridgeAddr
	}
	if *writeConfig != "" {
		if err := cfg.Write(*writeConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	state.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *monitor {
		if err := monitorBridge(ctx); err != nil {
			logger.Error("monitor failed", "error", err)
			return 1
		}
		return 0
	}
	if err := serve(ctx, stop, cfg, *headless, *replayPath); err != nil {
		logger.Error("sketchsynth stopped", "error", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, stop context.CancelFunc, cfg config.Config, headless bool, replayPath string) error {
	logger := state.Logger()

	var replay state.Data
	if replayPath != "" {
		f, err := os.Open(replayPath)
		if err != nil {
			return err
		}
		replay, err = export.ReadJSON(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	sketch := state.NewSketch(cfg.Canvas.Width, cfg.Canvas.Height, 0, cfg.Params())
	session := state.NewSession(sketch, nil)

	models := classify.NewHTTPClient(cfg.Classifier.SoundURL, cfg.Classifier.FeatureURL, cfg.Classifier.Timeout.Duration)
	runner := analysis.NewRunner(session, analysis.NewAnalyser(session, models, models, cfg.AnalysisOptions()))
	runner.DrawInterval = cfg.DrawInterval()
	runner.AnalyseInterval = cfg.Analysis.Interval.Duration
	runner.SetSimplified(cfg.Sketch.Simplified)

	bridge := snet.NewBridge(session.ID)
	bridge.OnClear = session.Reset
	runner.Publish = bridge.Publish

	ln, err := net.Listen("tcp", cfg.Bridge.Addr)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	logger.Info("bridge listening", "url", snet.BridgeURL(snet.OutgoingIP(), port), "session", session.ID)

	if cfg.Bridge.MDNS {
		server, err := snet.Advertise(port, session.ID)
		if err != nil {
			logger.Warn("mdns advertisement failed", "error", err)
		} else {
			defer server.Shutdown()
		}
	}

	var win *ui.Window
	var fyneApp fyne.App
	if !headless {
		fyneApp = app.NewWithID("sketchsynth")
		win = ui.NewWindow(fyneApp, session, runner)
		runner.OnFrame = win.SetFrame
		runner.Publish = func(f analysis.Features) {
			bridge.Publish(f)
			win.SetFeatures(f)
		}
	}

	mux := http.NewServeMux()
	mux.Handle(snet.BridgePath, bridge)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		bridge.Close()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	g.Go(func() error { return runner.Run(ctx) })
	if replayPath != "" {
		g.Go(func() error { return export.Replay(ctx, session, replay) })
	}

	if win != nil {
		go func() {
			<-ctx.Done()
			fyne.Do(fyneApp.Quit)
		}()
		win.ShowAndRun()
		stop()
	}
	return g.Wait()
}

// monitorBridge finds a bridge over mDNS and prints its messages until ctx
// is done.
func monitorBridge(ctx context.Context) error {
	found := make(chan string, 1)
	err := snet.Browse(3*time.Second, func(url string) {
		select {
		case found <- url:
		default:
		}
	})
	if err != nil {
		return err
	}
	var url string
	select {
	case url = <-found:
	default:
		return errors.New("no bridge found on the local network")
	}
	state.Logger().Info("monitoring bridge", "url", url)
	return snet.Subscribe(ctx, url, func(p snet.Packet) {
		for _, m := range p.Messages {
			fmt.Println(m.Address, m.Args)
		}
	})
}
