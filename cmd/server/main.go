package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/crewvitals/vigil/internal/api"
	"github.com/crewvitals/vigil/internal/config"
	dbstore "github.com/crewvitals/vigil/internal/db"
	"github.com/crewvitals/vigil/internal/middleware"
	"github.com/crewvitals/vigil/internal/services"
	"github.com/crewvitals/vigil/internal/utils"
)

func main() {
	cfg, err := config.Load(os.Getenv("VIGIL_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	commit := os.Getenv("VIGIL_COMMIT")
	buildTime := os.Getenv("VIGIL_BUILD_TIME")

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	gateway := services.NewAnalysisGateway(cfg.GatewayConfig(), nil)

	mux := http.NewServeMux()
	api.NewRouter(store, gateway, cfg.RiskPolicy()).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		locale := middleware.LocaleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Vigil API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	handler := middleware.CORS(middleware.SecureHeaders(middleware.NoStore(
		middleware.Locale(middleware.WithAuth(mux)))))

	log.Printf("Vigil server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore prefers the sqlite store when a path is configured, importing a
// legacy JSON snapshot on first run; otherwise it serves straight from the
// snapshot store.
func openStore(cfg config.Config) (api.Store, error) {
	if cfg.SQLitePath == "" {
		if cfg.SnapshotPath == "" {
			log.Printf("no sqlite_path or snapshot_path configured, data will not survive restarts")
		}
		return api.NewMemoryStore(cfg.SnapshotPath), nil
	}

	if err := MigrateIfNeeded(cfg.SnapshotPath, cfg.SQLitePath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	sqliteDB, err := sql.Open("sqlite3", sqliteDSN(cfg.SQLitePath))
	if err != nil {
		return nil, err
	}
	if err := dbstore.RunMigrations(sqliteDB, os.Getenv("VIGIL_MIGRATIONS_DIR")); err != nil {
		return nil, err
	}
	return dbstore.NewStore(sqliteDB)
}
