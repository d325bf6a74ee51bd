package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/config"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/data"
	"github.com/ViewableGravy/better-ecs-sub001/internal/engine"
	"github.com/ViewableGravy/better-ecs-sub001/internal/persist"
	"github.com/ViewableGravy/better-ecs-sub001/internal/render"
	"github.com/ViewableGravy/better-ecs-sub001/internal/scene"
	"github.com/ViewableGravy/better-ecs-sub001/internal/scripting"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/ViewableGravy/better-ecs-sub001/internal/system"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config   string
	scene    string
	headless bool
	watch    bool
	duration time.Duration
	importTo bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("ecsrt", pflag.ContinueOnError)
	defaultCfg := os.Getenv("ECSRT_CONFIG")
	if defaultCfg == "" {
		defaultCfg = "config/ecsrt.toml"
	}
	fs.StringVarP(&f.config, "config", "c", defaultCfg, "TOML configuration file (env ECSRT_CONFIG)")
	fs.StringVarP(&f.scene, "scene", "s", "", "YAML scene file; overrides [scene] and forces the yaml source")
	fs.BoolVar(&f.headless, "headless", false, "run without a terminal renderer")
	fs.BoolVarP(&f.watch, "watch", "w", false, "reload scripted systems when their Lua files change")
	fs.DurationVar(&f.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	fs.BoolVar(&f.importTo, "import", false, "store the YAML scene in the database catalog and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	if f.scene != "" {
		cfg.Scene.Source = "yaml"
		cfg.Scene.Path = f.scene
	}
	if f.headless {
		cfg.Render.Mode = "headless"
	}
	if cfg.Render.Mode == "terminal" && cfg.Logging.File == "" {
		// the screen owns stderr while the terminal renderer runs
		cfg.Logging.File = "ecsrt.log"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return eris.Wrap(err, "create logger")
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.importTo {
		return importScene(ctx, cfg, log)
	}

	sceneFile, err := loadScene(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("scene loaded",
		zap.String("scene", sceneFile.Name),
		zap.String("source", cfg.Scene.Source),
		zap.Int("contexts", len(sceneFile.Contexts)))

	cat := component.NewCatalog(ecs.NewRegistry())
	scripts := scripting.NewEngine(cfg.Scene.ScriptsDir, cat, log.Named("lua"))
	defer scripts.Close()

	input := system.NewInputQueue(cfg.Loop.InputQueue)
	frame := &render.Frame{}
	s, err := scene.FromFile(sceneFile, scene.BuildOptions{
		Catalog:          cat,
		Scripts:          scripts,
		Input:            input,
		MaxInputsPerTick: cfg.Loop.MaxInputs,
		Frame:            frame,
	})
	if err != nil {
		return err
	}
	m, err := scene.Start(s, spatial.WithLogger(log))
	if err != nil {
		return err
	}
	defer m.Close()
	journal := scene.Observe(m, log)

	rt := &scene.Runtime{Manager: m, Frame: frame, Scripts: scripts, Log: log}
	var term *render.Terminal
	if cfg.Render.Mode == "terminal" {
		term, err = render.OpenTerminal()
		if err != nil {
			return err
		}
		term.OffX, term.OffY = cfg.Render.OffX, cfg.Render.OffY
		rt.Renderer = term
	} else {
		rt.Renderer = &render.Discard{}
	}
	defer rt.Renderer.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if f.duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, f.duration)
		defer cancel()
	}
	g, gctx := errgroup.WithContext(runCtx)

	if f.watch {
		w, err := scripting.NewWatcher(cfg.Scene.ScriptsDir, log)
		if err != nil {
			return err
		}
		rt.Watcher = w
		g.Go(func() error { return w.Run(gctx) })
	}
	if term != nil {
		g.Go(func() error { return term.Pump(gctx, input) })
	}

	loop := &engine.Loop{
		UpdateInterval: cfg.Loop.UpdateInterval,
		FrameInterval:  cfg.Loop.FrameInterval,
		MaxCatchUp:     cfg.Loop.MaxCatchUp,
		Log:            log,
	}
	var stats engine.Stats
	g.Go(func() error {
		// the loop ending for any reason stops the other goroutines
		defer cancel()
		var err error
		stats, err = loop.Run(gctx, rt)
		return err
	})

	err = g.Wait()
	journal.Flush()
	log.Info("runtime stopped",
		zap.Uint64("updates", stats.Updates),
		zap.Uint64("renders", stats.Renders),
		zap.Uint64("dropped", stats.Dropped),
		zap.Int("transitions", journal.Transitions),
		zap.Int("contexts_loaded", journal.Loaded),
		zap.String("focus", string(m.FocusedContextID())))
	if errors.Is(err, render.ErrQuit) {
		return nil
	}
	if cfg.Render.Mode == "headless" {
		fmt.Printf("ecsrt: scene %q, %d updates, %d renders, %d transitions, focus %s\n",
			sceneFile.Name, stats.Updates, stats.Renders, journal.Transitions, m.FocusedContextID())
	}
	return err
}

// loadScene reads the configured scene from its source.
func loadScene(ctx context.Context, cfg *config.Config, log *zap.Logger) (*data.SceneFile, error) {
	if cfg.Scene.Source == "yaml" {
		return data.LoadSceneFile(cfg.Scene.Path)
	}
	db, err := openCatalog(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return persist.NewSceneRepo(db).Load(ctx, cfg.Scene.Name)
}

func importScene(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	f, err := data.LoadSceneFile(cfg.Scene.Path)
	if err != nil {
		return err
	}
	db, err := openCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := persist.NewSceneRepo(db).Save(ctx, f); err != nil {
		return err
	}
	log.Info("scene imported", zap.String("scene", f.Name), zap.String("from", cfg.Scene.Path))
	return nil
}

func openCatalog(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persist.DB, error) {
	return persist.NewDB(ctx, cfg.Database, log.Named("catalog"))
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
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
		if cfg.Format != "json" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
