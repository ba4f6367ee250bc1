// File: cmd/bmpecho/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// bmpecho is a runnable harness over the connection/message/wire stack:
// "serve" answers every Request with its own body, "ping" dials a server
// and fires one or more Requests at it. Structured as urfave/cli/v3
// subcommands, generalizing tzrikka-timpani's cmd/timpani/main.go. "serve"
// also exercises the control package's ambient layer end to end: a
// ConfigStore drives per-connection tunables, DebugProbes/MetricsRegistry
// track traffic, and a hot-reload hook reacts to tunable changes.

package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/momentics/bmp/actor"
	"github.com/momentics/bmp/connection"
	"github.com/momentics/bmp/control"
	"github.com/momentics/bmp/message"
	"github.com/momentics/bmp/transport/ws"
)

func main() {
	cmd := &cli.Command{
		Name:  "bmpecho",
		Usage: "BMP echo server and client harness",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pretty-log", Usage: "human-readable console logging instead of JSON"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			initLog(cmd.Bool("pretty-log"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			pingCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLog(pretty bool) {
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "accept WebSocket connections and echo every request's body back",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8931"},
			&cli.BoolFlag{Name: "compress", Usage: "enable per-connection DEFLATE framing"},
			&cli.IntFlag{Name: "affinity-cpu", Value: -1, Usage: "pin the accept loop to this CPU (Linux only, -1 disables)"},
			&cli.IntFlag{Name: "workers", Value: 0, Usage: "actor.Scheduler worker pool size (0 uses the hardware-concurrency default)"},
			&cli.IntFlag{Name: "reload-compression-after-seconds", Value: 0, Usage: "flip the bmp.compression tunable via ConfigStore after this many seconds, applied to subsequently accepted connections (0 disables)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServe(cmd.String("addr"), cmd.Bool("compress"), cmd.Int("affinity-cpu"),
				cmd.Int("workers"), cmd.Int("reload-compression-after-seconds"))
		},
	}
}

// runServe accepts WebSocket connections and echoes every request back,
// wiring the control package's ambient operational layer around the
// connection.Connection stack: a ConfigStore seeded with the serve flags
// supplies live-reloadable tunables to every newly accepted connection, a
// DebugProbes/MetricsRegistry pair tracks per-connection traffic alongside
// platform counters, and a reload hook (plus, if reloadAfterSeconds is
// set, a scheduled SetConfig call demonstrating it) ties SetConfig through
// to TriggerHotReload.
func runServe(addr string, compress bool, affinityCPU, workers, reloadAfterSeconds int) error {
	cs := control.NewConfigStore()
	cs.SetConfig(map[string]any{
		"bmp.max_frame_payload": 16 * 1024,
		"bmp.compression":       compress,
		"bmp.scheduler_workers": workers,
	})

	dp := control.NewDebugProbes()
	mr := control.NewMetricsRegistry()
	control.RegisterPlatformProbes(dp)

	control.RegisterReloadHook(func() {
		s := control.BMPSettingsFromStore(cs)
		log.Info().
			Int("max_frame_payload", s.MaxFramePayload).
			Bool("compression", s.Compression).
			Msg("bmpecho: tunables reloaded")
	})

	var sched *actor.Scheduler
	if workers > 0 {
		sched = actor.NewScheduler(workers)
	}

	go logPeriodicStats(dp, mr)

	if reloadAfterSeconds > 0 {
		go func() {
			time.Sleep(time.Duration(reloadAfterSeconds) * time.Second)
			cur := control.BMPSettingsFromStore(cs)
			cs.SetConfig(map[string]any{"bmp.compression": !cur.Compression})
		}()
	}

	var seq int
	var seqMu sync.Mutex
	nextConnName := func() string {
		seqMu.Lock()
		defer seqMu.Unlock()
		seq++
		return fmt.Sprintf("peer-%d", seq)
	}

	log.Info().Str("addr", addr).Msg("bmpecho: listening")
	return ws.Serve(ws.ListenerConfig{
		Addr:        addr,
		AffinityCPU: affinityCPU,
		ConnHandler: func(wsConn *ws.Conn) {
			name := nextConnName()
			settings := control.BMPSettingsFromStore(cs)

			counters := &control.ConnectionCounters{}
			control.RegisterConnection(name, counters, dp, mr)

			opts := []connection.Option{
				connection.WithName(name),
				connection.WithMaxFramePayload(settings.MaxFramePayload),
				connection.WithCompression(settings.Compression),
				connection.WithCounters(counters),
			}
			if sched != nil {
				opts = append(opts, connection.WithScheduler(sched))
			}
			c := connection.New(wsConn, echoDelegate{}, opts...)
			c.Open()
		},
	})
}

// logPeriodicStats logs a DebugProbes/MetricsRegistry snapshot every 30s at
// debug level, so long-running bmpecho processes surface connection traffic
// and platform counters without a separate scrape endpoint. The default
// JSON logging sets the global level to info, so these lines appear only
// with --pretty-log.
func logPeriodicStats(dp *control.DebugProbes, mr *control.MetricsRegistry) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		log.Debug().
			Interface("debug", dp.DumpState()).
			Interface("metrics", mr.GetSnapshot()).
			Msg("bmpecho: periodic stats")
	}
}

type echoDelegate struct{ connection.NopDelegate }

func (echoDelegate) OnConnect(c *connection.Connection) {
	log.Info().Str("connection", c.ActorName()).Msg("bmpecho: peer connected")
}

func (echoDelegate) OnClose(c *connection.Connection, reason error) {
	log.Info().Str("connection", c.ActorName()).Err(reason).Msg("bmpecho: peer disconnected")
}

func (echoDelegate) OnRequestReceived(c *connection.Connection, in *message.In) {
	body, err := in.Body()
	if err != nil {
		_ = in.RespondError("BMP", "400", err.Error())
		return
	}
	_ = in.Respond(message.NewBuilder().SetBody(body))
}

func pingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "dial a bmpecho server and send one or more echo requests",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8931"},
			&cli.StringFlag{Name: "path", Value: "/bmp"},
			&cli.StringFlag{Name: "body", Value: "hello bmp"},
			&cli.IntFlag{Name: "count", Value: 1},
			&cli.BoolFlag{Name: "compress"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPing(cmd.String("addr"), cmd.String("path"), cmd.String("body"), cmd.Int("count"), cmd.Bool("compress"))
		},
	}
}

func runPing(addr, path, body string, count int, compress bool) error {
	wsConn, err := ws.DialClient("tcp", addr, path)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	var opts []connection.Option
	opts = append(opts, connection.WithName("ping->"+addr))
	if compress {
		opts = append(opts, connection.WithCompression(true))
	}
	c := connection.New(wsConn, connection.NopDelegate{}, opts...)
	c.Open()
	defer c.Close()

	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		n := i
		c.SendRequest(message.NewBuilder().SetBody([]byte(body)).Compressed(compress), func(in *message.In, err error) {
			defer wg.Done()
			if err != nil {
				log.Error().Int("n", n).Err(err).Msg("bmpecho: request failed")
				return
			}
			got, berr := in.Body()
			if berr != nil {
				log.Error().Int("n", n).Err(berr).Msg("bmpecho: bad response body")
				return
			}
			fmt.Printf("#%d: %s\n", n, got)
		})
	}
	wg.Wait()
	return nil
}
