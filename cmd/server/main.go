package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/allroundedgrowth/glucobalance/internal/ai"
	"github.com/allroundedgrowth/glucobalance/internal/api"
	"github.com/allroundedgrowth/glucobalance/internal/db"
	"github.com/allroundedgrowth/glucobalance/internal/middleware"
	"github.com/allroundedgrowth/glucobalance/internal/services"
	"github.com/allroundedgrowth/glucobalance/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	addr := utils.SafeEnv("GLUCO_ADDR", ":8080")
	commit := os.Getenv("GLUCO_COMMIT")
	buildTime := os.Getenv("GLUCO_BUILD_TIME")

	store, err := openStore()
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	ctx := context.Background()
	generator, err := ai.NewGeminiGenerator(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GLUCO_AI_MODEL"))
	if err != nil {
		log.Fatalf("ai: %v", err)
	}
	if generator == nil {
		log.Printf("ai: GEMINI_API_KEY not set, using deterministic fallbacks")
	}

	fallback := db.NewSnapshotStore(utils.SafeEnv("GLUCO_SNAPSHOT_PATH", filepath.Join("data", "results_fallback.json")))

	mux := http.NewServeMux()
	api.NewRouter(api.Config{
		Store: store,
		// A nil *GeminiGenerator must stay a nil interface so fallbacks engage.
		Generator: generatorOrNil(generator),
		Fallback:  fallback,
		AITimeout: utils.EnvDuration("GLUCO_AI_TIMEOUT", 0),
	}).Register(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "GlucoBalance API",
			"ai":         generator.Available(),
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	if staticDir := os.Getenv("GLUCO_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.SecureHeaders(middleware.NoStore(middleware.CORS(middleware.WithAuth(mux))))

	log.Printf("GlucoBalance server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore opens the sqlite store, or the in-memory store when no path is
// configured (useful for local API experiments; nothing survives a restart).
func openStore() (api.Store, error) {
	path := utils.SafeEnv("GLUCO_SQLITE_PATH", filepath.Join("data", "glucobalance.db"))
	if path == "memory" {
		log.Printf("store: using in-memory store")
		return api.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.RunMigrations(sqliteDB, os.Getenv("GLUCO_MIGRATIONS_DIR")); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db.NewSQLiteStore(sqliteDB)
}

func generatorOrNil(g *ai.GeminiGenerator) services.TextGenerator {
	if g == nil {
		return nil
	}
	return g
}
