// Package main provides the world server binary: a Telnet-facing
// multiplayer text world.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tinyworld/internal/config"
	"github.com/cory-johannsen/tinyworld/internal/game/engine"
	"github.com/cory-johannsen/tinyworld/internal/game/session"
	"github.com/cory-johannsen/tinyworld/internal/game/world"
	"github.com/cory-johannsen/tinyworld/internal/observability"
	"github.com/cory-johannsen/tinyworld/internal/scripting"
	"github.com/cory-johannsen/tinyworld/internal/server"
	"github.com/cory-johannsen/tinyworld/internal/telnet"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	worldFile := flag.String("world", "", "path to the world YAML file; overrides config")
	scriptDir := flag.String("scripts", "", "directory of Lua hook scripts; overrides config")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *worldFile != "" {
		cfg.World.File = *worldFile
	}
	if *scriptDir != "" {
		cfg.Scripting.Dir = *scriptDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting world server",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
	)

	// Load world
	worldStart := time.Now()
	graph, err := world.LoadFromFile(cfg.World.File)
	if err != nil {
		logger.Fatal("loading world", zap.Error(err))
	}
	logger.Info("world loaded",
		zap.String("file", cfg.World.File),
		zap.Int("rooms", graph.RoomCount()),
		zap.String("start_room", graph.StartRoom().ID),
		zap.Duration("elapsed", time.Since(worldStart)),
	)

	registry := session.NewRegistry(cfg.World.OutboxBuffer)
	router := engine.NewRouter(registry, logger)

	// Initialise scripting
	var scriptMgr *scripting.Manager
	if cfg.Scripting.Dir != "" {
		if info, statErr := os.Stat(cfg.Scripting.Dir); statErr != nil || !info.IsDir() {
			logger.Warn("script dir not found, scripting disabled",
				zap.String("dir", cfg.Scripting.Dir))
		} else {
			scriptStart := time.Now()
			scriptMgr = scripting.NewManager(logger)
			if err := scriptMgr.Load(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
				logger.Fatal("loading scripts", zap.Error(err))
			}
			defer scriptMgr.Close()

			scriptMgr.Broadcast = func(roomID, text string) {
				router.SendToRoom(roomID, 0, text)
			}
			scriptMgr.QueryRoom = func(roomID string) *scripting.RoomInfo {
				room, ok := graph.Room(roomID)
				if !ok {
					return nil
				}
				return &scripting.RoomInfo{ID: room.ID, Title: room.Title}
			}

			logger.Info("scripts loaded",
				zap.String("dir", cfg.Scripting.Dir),
				zap.Duration("elapsed", time.Since(scriptStart)),
			)
		}
	}

	eng := engine.NewEngine(graph, registry, router, scriptMgr, logger)
	handler := engine.NewHandler(eng, logger)
	acceptor := telnet.NewAcceptor(cfg.Telnet, handler, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("world server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
