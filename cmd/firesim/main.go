// Command firesim runs a wildfire + drone-swarm simulation from a scenario
// file, records the run to SQLite, and streams snapshots to viewers.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/firewatch/internal/record"
	"github.com/talgya/firewatch/internal/scenario"
	"github.com/talgya/firewatch/internal/sim"
	"github.com/talgya/firewatch/internal/stream"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "Scenario YAML file (empty = built-in default)")
		dbPath       = flag.String("db", "data/firewatch.db", "Run recording database (empty = no recording)")
		port         = flag.Int("port", 0, "Snapshot server port (0 = disabled)")
		seed         = flag.Int64("seed", 0, "Override scenario seed (0 = keep)")
		rate         = flag.Float64("rate", 0, "Ticks per second (0 = unpaced)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	sc := scenario.Default()
	if *scenarioPath != "" {
		var err error
		sc, err = scenario.Load(*scenarioPath)
		if err != nil {
			slog.Error("failed to load scenario", "path", *scenarioPath, "error", err)
			os.Exit(1)
		}
	}
	if *seed != 0 {
		sc.Seed = *seed
		sc.Terrain.Seed = *seed
	}

	slog.Info("scenario loaded",
		"name", sc.Name,
		"seed", sc.Seed,
		"grid", sc.Terrain.Width*sc.Terrain.Height,
		"swarm", sc.Swarm.Count,
		"max_ticks", sc.Run.MaxTicks,
	)

	run, err := sc.Build()
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	var db *record.DB
	var runID string
	if *dbPath != "" {
		os.MkdirAll(filepath.Dir(*dbPath), 0755)
		db, err = record.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open database", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		runID, err = db.BeginRun(sc.Name, sc.Seed, sc.Terrain.Width, sc.Terrain.Height, sc.Swarm.Count)
		if err != nil {
			slog.Error("failed to register run", "error", err)
			os.Exit(1)
		}
		slog.Info("recording run", "id", runID, "path", *dbPath)
	}

	var server *stream.Server
	if *port > 0 {
		server = stream.NewServer()
		server.Start(*port)
	}

	// Ctrl-C stops the run cleanly after the current tick.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var pacer *time.Ticker
	if *rate > 0 {
		pacer = time.NewTicker(time.Duration(float64(time.Second) / *rate))
		defer pacer.Stop()
	}

	eventsSaved := 0
	start := time.Now()
	var last *sim.Snapshot

loop:
	for run.State() == sim.StateInitialized || run.State() == sim.StateRunning {
		select {
		case <-stop:
			slog.Info("interrupted", "tick", run.Tick())
			break loop
		default:
		}
		if pacer != nil {
			<-pacer.C
		}

		snap, err := run.Step()
		if err != nil {
			slog.Error("run failed", "tick", run.Tick(), "error", err)
			break loop
		}
		last = snap

		if server != nil {
			server.Publish(snap)
		}
		if db != nil {
			if err := db.SaveTick(runID, snap, run.Coordinator().ActiveCount()); err != nil {
				slog.Error("tick recording failed", "error", err)
			}
			if fresh := run.Events()[eventsSaved:]; len(fresh) > 0 {
				if err := db.SaveEvents(runID, fresh); err != nil {
					slog.Error("event recording failed", "error", err)
				}
				eventsSaved += len(fresh)
			}
		}
	}

	if db != nil {
		if err := db.FinishRun(runID, sim.StateName(run.State()), run.Tick()); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
	}

	if last != nil {
		slog.Info("run finished",
			"state", sim.StateName(run.State()),
			"ticks", run.Tick(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"cells_burnt", humanize.Comma(int64(last.Burnt)),
			"cells_spared", humanize.Comma(int64(last.Unburned)),
			"drones_active", run.Coordinator().ActiveCount(),
			"events", humanize.Comma(int64(len(run.Events()))),
		)
	}

	if run.State() == sim.StateFailed {
		os.Exit(1)
	}
}
