package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/commands"
	"github.com/colonyops/touchline/internal/core/auth"
	"github.com/colonyops/touchline/internal/core/config"
	"github.com/colonyops/touchline/internal/core/logging"
	"github.com/colonyops/touchline/internal/core/styles"
	"github.com/colonyops/touchline/internal/core/thread"
	"github.com/colonyops/touchline/internal/data/db"
	"github.com/colonyops/touchline/internal/data/stores"
	"github.com/colonyops/touchline/internal/integration/commentapi"
	"github.com/colonyops/touchline/internal/touchline"
	"github.com/colonyops/touchline/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, readBuildInfo
	// fills these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func readBuildInfo() touchline.BuildInfo {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	return touchline.BuildInfo{Version: v, Commit: c, Date: d}
}

func versionString(b touchline.BuildInfo) string {
	short := b.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s) %s", b.Version, short, b.Date)
}

// openDatabase opens the local database, moving a corrupt file aside and
// retrying once.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		FileName:     db.DefaultOpenOptions().FileName,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	backup, rerr := stores.RecoverFromCorruption(cfg.DataDir, opts.FileName)
	if rerr != nil {
		return nil, fmt.Errorf("%w (recovery failed: %v)", err, rerr)
	}
	log.Warn().Str("backup", backup).Msg("database was corrupt, moved aside and starting fresh")
	return db.Open(cfg.DataDir, opts)
}

func main() {
	ctx := context.Background()

	var (
		logCloser    func()
		touchlineApp = &touchline.App{}
		database     *db.DB
		build        = readBuildInfo()
	)

	flags := &commands.Flags{}

	app := commands.NewRoot(flags, touchlineApp, versionString(build))

	app.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		// The TUI owns the terminal, so logs go to a file unless told otherwise.
		logFile := flags.LogFile
		if logFile == "" {
			logFile = filepath.Join(flags.DataDir, "touchline.log")
		}

		logger, closer, err := logutils.New(flags.LogLevel, logFile)
		if err != nil {
			return ctx, fmt.Errorf("setup logger: %w", err)
		}
		log.Logger = logger.Hook(logging.ContextHook{})
		logCloser = closer

		cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
		if err != nil {
			return ctx, fmt.Errorf("load config: %w", err)
		}
		flags.Config = cfg

		// Validation ensures the name is known.
		palette, _ := styles.GetPalette(cfg.TUI.Theme)
		styles.SetTheme(palette)

		database, err = openDatabase(cfg)
		if err != nil {
			return ctx, fmt.Errorf("open database: %w", err)
		}

		formatter, err := thread.NewFormatter(cfg.Display.TimeLayout, cfg.Display.TimeZone)
		if err != nil {
			return ctx, fmt.Errorf("time format: %w", err)
		}

		client := commentapi.New(cfg.API.BaseURL, cfg.API.Timeout, logging.Component("commentapi"))
		threads := touchline.NewThreadService(client, formatter, cfg, logging.Component("thread"))
		session := auth.NewSession(touchline.CredentialProvider(cfg.Auth))

		// Commands already hold a pointer to the App.
		*touchlineApp = *touchline.NewApp(
			threads,
			session,
			stores.NewNavStore(database),
			cfg,
			database,
			build,
		)

		return ctx, nil
	}
	app.After = func(ctx context.Context, c *cli.Command) error {
		if database != nil {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				return err
			}
		}

		if logCloser != nil {
			logCloser()
		}
		return nil
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
