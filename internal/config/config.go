package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config is the full env-sourced configuration surface.
// APIBaseURL selects the backing-store variant: when it is set the app
// talks to the remote backend, otherwise todos live in per-user JSON
// blobs under DataDir.
type Config struct {
	APIBaseURL string // TAREAS_API_URL
	DataDir    string // TAREAS_DATA_DIR, default ~/.tareas
	Theme      string // TAREAS_THEME: classic | neon | mono

	// Fixed position used by the geolocation shim. Left empty, the
	// locator behaves as if the location permission was denied.
	Latitude  string // TAREAS_LAT
	Longitude string // TAREAS_LON
}

// Load reads .env if present (ok if missing in prod) and fills the rest
// from the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	dir := os.Getenv("TAREAS_DATA_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("home: %w", err)
		}
		dir = filepath.Join(home, ".tareas")
	}

	return Config{
		APIBaseURL: os.Getenv("TAREAS_API_URL"),
		DataDir:    dir,
		Theme:      getenvDefault("TAREAS_THEME", "classic"),
		Latitude:   os.Getenv("TAREAS_LAT"),
		Longitude:  os.Getenv("TAREAS_LON"),
	}, nil
}

// Remote reports whether the remote REST variant is active.
func (c Config) Remote() bool { return c.APIBaseURL != "" }

func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
