// Package config supplies the CLI flag defaults. Values come from INJEKT_*
// environment variables, then from a .injekt.env file in the working
// directory, then from the built-in defaults. Explicit flags override all
// of them; that layer lives in cmd/injekt.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFile is the name of the optional defaults file.
const EnvFile = ".injekt.env"

// Prefix starts every recognized variable.
const Prefix = "INJEKT_"

// Config holds the defaults of the persistent and per-command flags.
type Config struct {
	Color          string // auto|on|off
	Quiet          bool
	Timings        bool
	MaxDiagnostics int
	Format         string // pretty|json

	Trace         string // output path, "-" for stderr
	TraceLevel    string
	TraceMode     string
	TraceRingSize int

	Jobs     int
	UI       string // auto|on|off
	CacheDir string
	NoCache  bool

	Addr string
}

// Defaults returns the built-in defaults.
func Defaults() *Config {
	return &Config{
		Color:          "auto",
		MaxDiagnostics: 100,
		Format:         "pretty",
		TraceLevel:     "off",
		TraceMode:      "stream",
		TraceRingSize:  4096,
		UI:             "auto",
		Addr:           ":8080",
	}
}

// Lookup finds a variable; os.LookupEnv fits.
type Lookup func(key string) (string, bool)

// Load reads dir/.injekt.env when present and the process environment.
func Load(dir string) (*Config, error) {
	return LoadFrom(os.LookupEnv, filepath.Join(dir, EnvFile))
}

// LoadFrom layers env over the optional file envPath over the defaults.
// A missing file is not an error; a malformed file or value is.
func LoadFrom(env Lookup, envPath string) (*Config, error) {
	file, err := godotenv.Read(envPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envPath, err)
		}
		file = nil
	}
	l := layered{env: env, file: file}
	cfg := Defaults()
	l.str("COLOR", &cfg.Color)
	l.boolean("QUIET", &cfg.Quiet)
	l.boolean("TIMINGS", &cfg.Timings)
	l.integer("MAX_DIAGNOSTICS", &cfg.MaxDiagnostics)
	l.str("FORMAT", &cfg.Format)
	l.str("TRACE", &cfg.Trace)
	l.str("TRACE_LEVEL", &cfg.TraceLevel)
	l.str("TRACE_MODE", &cfg.TraceMode)
	l.integer("TRACE_RING_SIZE", &cfg.TraceRingSize)
	l.integer("JOBS", &cfg.Jobs)
	l.str("UI", &cfg.UI)
	l.str("CACHE_DIR", &cfg.CacheDir)
	l.boolean("NO_CACHE", &cfg.NoCache)
	l.str("ADDR", &cfg.Addr)
	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}
	return cfg, nil
}

type layered struct {
	env  Lookup
	file map[string]string
	errs []error
}

func (l *layered) get(name string) (string, bool) {
	key := Prefix + name
	if l.env != nil {
		if v, ok := l.env(key); ok && v != "" {
			return v, true
		}
	}
	v, ok := l.file[key]
	return v, ok && v != ""
}

func (l *layered) str(name string, dst *string) {
	if v, ok := l.get(name); ok {
		*dst = strings.TrimSpace(v)
	}
}

func (l *layered) boolean(name string, dst *bool) {
	v, ok := l.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s%s: %w", Prefix, name, err))
		return
	}
	*dst = b
}

func (l *layered) integer(name string, dst *int) {
	v, ok := l.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s%s: %w", Prefix, name, err))
		return
	}
	*dst = n
}
