package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"raceserver/backend"
	"raceserver/config"
	"raceserver/gamenet"
	"raceserver/handler"
	"raceserver/logging"
	"raceserver/manager"
	"raceserver/overlay"
	"raceserver/queue"
	"raceserver/race"
	"raceserver/resources"
	"raceserver/store"
	"raceserver/telemetry"
	"raceserver/track"
	"raceserver/ui"
)

var version = "dev"

func serverInfo(cfg *config.Config) handler.ServerInfo {
	return handler.ServerInfo{
		Name:        cfg.General.Name,
		Description: cfg.General.Description,
		Map:         cfg.General.Map,
		MaxPlayers:  cfg.General.MaxPlayers,
		MaxCars:     cfg.General.MaxCars,
		Private:     cfg.General.Private,
		Version:     version,
	}
}

func main() {
	config.ParseArgs()
	if config.CliArgs.Version {
		fmt.Println(version)
		return
	}

	log := logging.GetLogger()
	cfg, err := config.LoadConfig(config.CliArgs.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.InitLogger(logging.LevelFor(cfg.General.Debug || config.CliArgs.Debug))
	log.Infof("Starting %s (version %s)", cfg.General.Name, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Misc.SendErrors && cfg.Misc.SendErrorsShowMessage {
		log.Info(telemetry.OptOutNotice)
	}
	if cfg.TelemetryEnabled() {
		uploader, err := telemetry.NewMinioUploader(ctx, cfg.Telemetry)
		if err != nil {
			log.Warnf("Crash reporting disabled: %v", err)
		} else {
			reporter := telemetry.NewReporter(uploader, cfg.General.Name, version)
			log.AddHook(reporter)
			defer reporter.Close()
			defer reporter.Recover()
		}
	}

	set, err := track.LoadSet(cfg.Track)
	if err != nil {
		log.Fatalf("Failed to load track: %v", err)
	}

	mods, err := resources.Open(cfg.General.ResourceFolder)
	if err != nil {
		log.Fatalf("Failed to open resources: %v", err)
	}
	log.Infof("Loaded %d client mods", len(mods.List()))
	go func() {
		if err := mods.Watch(ctx); err != nil {
			log.Warnf("Resource watcher stopped: %v", err)
		}
	}()

	var recorder race.Recorder
	var results handler.ResultSource
	if cfg.Store.Database != "" {
		db, err := store.New(ctx, cfg.Store.Database, cfg.General.Map)
		if err != nil {
			log.Fatalf("Failed to open results database: %v", err)
		}
		defer db.Close()
		recorder, results = db, db
	}

	engine := race.NewEngine(race.SettingsFrom(cfg), set, recorder)

	slots := manager.NewSlotManager(cfg.General.MaxPlayers)
	defer slots.Shutdown()
	outboxes := queue.NewManager(1024)
	defer outboxes.Shutdown()

	game, err := gamenet.Listen(cfg.GameAddr(), cfg.General.Map, engine, slots, outboxes)
	if err != nil {
		log.Fatalf("Failed to listen for game clients: %v", err)
	}
	go game.Serve(ctx)

	overlays, err := overlay.Listen(cfg.OverlayAddr(), engine, outboxes)
	if err != nil {
		log.Fatalf("Failed to listen for overlays: %v", err)
	}
	go overlays.Serve(ctx)

	var api *handler.HTTPHandler
	if cfg.HTTP.HTTPServerEnabled {
		api = handler.NewHTTPHandler(serverInfo(cfg), engine, mods, results)
		go func() {
			if err := handler.Serve(ctx, cfg.HTTP, cfg.HTTPAddr(), api); err != nil {
				log.Errorf("HTTP server: %v", err)
			}
		}()
	}

	var live atomic.Pointer[config.Config]
	live.Store(cfg)

	list := backend.NewBackendClient(config.CliArgs.BackendURL)
	if !cfg.Misc.ImScaredOfUpdates {
		go list.CheckForUpdates(ctx, version)
	}
	switch {
	case cfg.PublicListing():
		go list.Announce(ctx, backend.HeartbeatInterval, func() backend.Heartbeat {
			c := live.Load()
			return backend.Heartbeat{
				Key:         c.General.AuthKey,
				Name:        c.General.Name,
				Port:        c.General.Port,
				Players:     game.Players(),
				MaxPlayers:  c.General.MaxPlayers,
				Map:         c.General.Map,
				Description: c.General.Description,
				Version:     version,
				Mods:        len(mods.List()),
				ModsSize:    mods.TotalSize(),
			}
		})
	case !cfg.General.Private:
		log.Warn("Server is public but no AuthKey is set, it will not be listed")
	}

	config.Watch(config.CliArgs.ConfigFile, cfg, func(next *config.Config) {
		live.Store(next)
		logging.InitLogger(logging.LevelFor(next.General.Debug || config.CliArgs.Debug))
		engine.UpdateLive(next.General.MaxCars, next.General.LogChat)
		if api != nil {
			api.SetInfo(serverInfo(next))
		}
		log.Info("Config reloaded")
	})

	go func() {
		if err := engine.Run(ctx); err == nil {
			log.Info("Event finished, shutting down")
		}
		stop()
	}()

	if config.CliArgs.Headless {
		<-ctx.Done()
	} else {
		console := ui.New(cfg.General.Name, cfg.GameAddr(), cfg.General.Map)
		logging.SetOutput(console.LogWriter())
		err := console.Run(ctx, engine.Snapshot)
		logging.SetOutput(os.Stdout)
		if err != nil {
			log.Errorf("Console: %v", err)
		}
		stop()
	}
	log.Info("Shutting down")
}
