package touchline

import (
	"github.com/colonyops/touchline/internal/core/auth"
	"github.com/colonyops/touchline/internal/core/config"
	"github.com/colonyops/touchline/internal/core/nav"
	"github.com/colonyops/touchline/internal/data/db"
)

// BuildInfo holds build-time metadata.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App is the central entry point for touchline operations.
// Commands and the TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Threads *ThreadService
	Session *auth.Session
	Nav     nav.Store

	Config *config.Config
	DB     *db.DB
	Build  BuildInfo
}

// NewApp constructs an App from explicit dependencies.
func NewApp(
	threads *ThreadService,
	session *auth.Session,
	navStore nav.Store,
	cfg *config.Config,
	database *db.DB,
	build BuildInfo,
) *App {
	return &App{
		Threads: threads,
		Session: session,
		Nav:     navStore,
		Config:  cfg,
		DB:      database,
		Build:   build,
	}
}

// CredentialProvider builds the credential chain described by cfg: the
// environment variable first, then the token file.
func CredentialProvider(cfg config.AuthConfig) auth.Provider {
	return auth.Chain{
		auth.EnvProvider{Name: cfg.TokenEnv},
		auth.FileProvider{Path: cfg.TokenFile},
	}
}
