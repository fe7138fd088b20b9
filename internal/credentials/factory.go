package credentials

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type Config struct {
	Backend     string
	FilePath    string
	DatabaseURL string
	Redis       RedisConfig
}

// NewStore selects a credential backend. "file" is the default for a
// standalone client; redis and postgres suit clients sharing state with
// other tooling on the same host.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.FilePath)
	case "redis":
		return NewRedisStore(cfg.Redis)
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return NewPostgresStore(db)
	default:
		return nil, fmt.Errorf("unknown credential backend %q", cfg.Backend)
	}
}
