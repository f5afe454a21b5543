package router

import (
	"database/sql"
	"net/http"
	"os"

	"medtrack/internal/adapters/storage/jsonfile"
	mem "medtrack/internal/adapters/storage/memory"
	pg "medtrack/internal/adapters/storage/postgres"
	"medtrack/internal/domain/medications"
	"medtrack/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	// Opcional: si viene, usa Postgres. Si no, DATA_FILE o in-memory.
	DB *sql.DB

	Log logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var repo medications.Repository

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres open failed, falling back", map[string]any{"err": err.Error()})
			}
		}
	}

	switch {
	case db != nil:
		repo = pg.NewMedicationsRepo(db)
	case os.Getenv("DATA_FILE") != "":
		repo = jsonfile.NewMedicationsRepo(os.Getenv("DATA_FILE"), log)
	default:
		repo = mem.NewMedicationsRepo()
	}

	svc := medications.NewService(repo, log)
	medications.RegisterRoutes(r, svc)

	return r
}
