package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/skirmish/internal/config"
	"github.com/l1jgo/skirmish/internal/content"
	coresys "github.com/l1jgo/skirmish/internal/core/system"
	gonet "github.com/l1jgo/skirmish/internal/net"
	"github.com/l1jgo/skirmish/internal/persist"
	"github.com/l1jgo/skirmish/internal/rules"
	"github.com/l1jgo/skirmish/internal/scripting"
	"github.com/l1jgo/skirmish/internal/sim"
	"github.com/l1jgo/skirmish/internal/system"
	"github.com/l1jgo/skirmish/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int, mode string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              skirmish  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        deterministic unit simulation      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d, mode: %s)\033[0m\n\n", serverName, serverID, mode)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/skirmish.toml"
	if p := os.Getenv("SKIRMISH_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "config file")
	mode := flag.String("mode", "", "host or observe (overrides server.mode)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *mode != "" {
		cfg.Server.Mode = *mode
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID, cfg.Server.Mode)

	// 3. Load content and map
	printSection("content")

	cat, err := content.Load(cfg.Simulation.ContentPath)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	printStat("unit kinds", cat.Count())

	grid, err := world.LoadMap(cfg.Simulation.MapPath, cat)
	if err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	printStat("map tiles", grid.Width()*grid.Height())
	printStat("buildings", len(grid.Buildings()))
	printStat("spawn points", len(grid.Spawns()))

	r, err := rules.FromConfig(cfg.Rules)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	// 4. Initialize Lua scripting engine
	luaEngine, err := scripting.NewEngine(cfg.Simulation.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripts loaded")
	fmt.Println()

	sess, err := sim.NewSession(sim.Options{
		Rules:          r,
		Content:        cat,
		Grid:           grid,
		Seed:           cfg.Simulation.Seed,
		Authority:      cfg.Server.Mode == "host",
		Headless:       cfg.Server.Headless,
		Hooks:          luaEngine,
		Programs:       luaEngine,
		Effects:        sim.NewLogEffects(log),
		Log:            log,
		SyncInterval:   cfg.Simulation.SyncInterval,
		DigestInterval: cfg.Simulation.DigestInterval,
		LocalPlayer:    cfg.Server.Player,
	})
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	netOpts := gonet.SessionOptions{
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		WriteTimeout: cfg.Network.WriteTimeout,
		ReadTimeout:  cfg.Network.ReadTimeout,
	}

	if cfg.Server.Mode == "observe" {
		return runObserver(cfg, sess, netOpts, log)
	}
	return runHost(cfg, sess, netOpts, log)
}

func runHost(cfg *config.Config, sess *sim.Session, netOpts gonet.SessionOptions, log *zap.Logger) error {
	// 5. Connect to PostgreSQL, run migrations, restore the last snapshot
	var (
		snapshots system.SnapshotStore
		events    system.EventLog
		restored  bool
	)
	if cfg.Database.Enabled {
		printSection("database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		snapRepo := persist.NewSnapshotRepo(db, cfg.Server.ID)
		eventRepo := persist.NewEventLogRepo(db, cfg.Server.ID)
		snapshots = snapRepo
		events = eventRepo

		snap, err := snapRepo.LoadLatest(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if snap != nil {
			n, err := sess.Restore(snap.Data)
			if err != nil {
				log.Warn("snapshot partially restored", zap.Error(err))
			}
			restored = n > 0
			printStat("units restored", n)
			printStat("resumed at tick", int(snap.Tick))

			// Events logged after the snapshot belong to a run that was not
			// saved again before it stopped.
			lost, err := eventRepo.Since(ctx, snap.Tick+1)
			if err != nil {
				return fmt.Errorf("read event log: %w", err)
			}
			if len(lost) > 0 {
				log.Warn("events after last snapshot", zap.Int("events", len(lost)), zap.Uint64("snapshot_tick", snap.Tick))
			}
		}
		fmt.Println()
	}

	if !restored {
		if err := sess.Populate(); err != nil {
			return fmt.Errorf("populate: %w", err)
		}
	}

	// 6. Create observer server
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, cfg.Server.Name, netOpts, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()
	store := gonet.NewSessionStore()
	sess.SetBroadcaster(store)

	// 7. Create systems and register with runner
	runner := coresys.NewRunner()
	runner.Register(system.NewHostInputSystem(netServer, store, sess, cfg.Network.InQueueSize, log))
	runner.Register(system.NewApplySystem(sess))
	runner.Register(system.NewEventDispatchSystem(sess.Bus()))
	runner.Register(system.NewUnitSystem(sess))
	runner.Register(system.NewWaveSystem(sess, log))
	runner.Register(system.NewBulletSystem(sess))
	runner.Register(system.NewSyncSystem(sess, store))
	persistSys := system.NewPersistenceSystem(sess, snapshots, events, log, cfg.Simulation.SaveInterval)
	persistSys.SetRetention(cfg.Database.SnapshotKeep)
	if snapshots != nil {
		runner.Register(persistSys)
	}
	runner.Register(system.NewCleanupSystem(sess))

	// 8. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("observers on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			if snapshots != nil {
				persistSys.Save()
			}
			netServer.Shutdown()
			log.Info("server stopped", zap.Uint64("tick", sess.Tick()), zap.Int("units", sess.Count()))
			return nil
		}
	}
}

func runObserver(cfg *config.Config, sess *sim.Session, netOpts gonet.SessionOptions, log *zap.Logger) error {
	printSection("host")
	conn, hostName, err := gonet.Dial(cfg.Network.ObserveAddress, netOpts, log)
	if err != nil {
		return fmt.Errorf("observe %s: %w", cfg.Network.ObserveAddress, err)
	}
	defer conn.Close()
	printOK(fmt.Sprintf("following %s at %s", hostName, cfg.Network.ObserveAddress))
	fmt.Println()

	runner := coresys.NewRunner()
	runner.Register(system.NewReplicaInputSystem(conn, sess, log))
	runner.Register(system.NewApplySystem(sess))
	runner.Register(system.NewEventDispatchSystem(sess.Bus()))
	runner.Register(system.NewUnitSystem(sess))
	runner.Register(system.NewBulletSystem(sess))
	runner.Register(system.NewSyncSystem(sess, nil))
	runner.Register(system.NewCleanupSystem(sess))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("replica loop (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			// Step once per host tick received; catch up when frames bunch.
			runner.TickPhase(coresys.PhaseInput, cfg.Simulation.TickRate)
			for sess.Ready() > 0 {
				runner.Tick(cfg.Simulation.TickRate)
			}
		case <-conn.Done():
			return errors.New("host closed the connection")
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			log.Info("observer stopped",
				zap.Uint64("tick", sess.Tick()),
				zap.Int("units", sess.Count()),
				zap.Int("digest_mismatches", sess.Mismatches()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
