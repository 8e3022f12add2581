package config

// SQLite driver names as registered with database/sql.
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverModernc = "sqlite"  // modernc.org/sqlite (pure Go)
)

// ValidDrivers lists the supported store drivers.
var ValidDrivers = []string{DriverMattn, DriverModernc}

// StoreConfig configures the term store.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	BusyTimeout string `yaml:"busy_timeout"`
}

// ModelConfig configures model artifact locations.
type ModelConfig struct {
	// OutputDir receives <domain>_model.json and the expression tree files.
	OutputDir string `yaml:"output_dir"`
	// TermListDir holds <domain>_<type>_list_terms.json.
	TermListDir string `yaml:"term_list_dir"`
}

// ValidationConfig configures the cross-reference pass run before saving.
type ValidationConfig struct {
	Enabled bool `yaml:"enabled"`
	// FactLimit caps the facts one pass may load. Zero means no cap.
	FactLimit int `yaml:"fact_limit"`
}

// WatchConfig configures the definitions watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}
