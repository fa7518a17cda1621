// Package config loads goalpm settings and turns them into an open alpm
// handle.
//
// Settings come from an optional YAML, TOML or JSON file and from GOALPM_*
// environment variables, in that order of precedence from lowest to highest.
// Signature levels and database usage are written with the words pacman.conf
// uses, for example:
//
//	siglevel: [Required, DatabaseOptional]
//	repos:
//	  - name: core
//	    servers: [https://geo.mirror.pkgbuild.com/core/os/x86_64]
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

const (
	// EnvPrefix prefixes every environment override, e.g. GOALPM_DBPATH.
	EnvPrefix = "GOALPM"

	DefaultRoot   = "/"
	DefaultDBPath = "/var/lib/pacman/"
)

// Repo is a sync database and its mirrors.
type Repo struct {
	Name     string   `mapstructure:"name" validate:"required,ne=local,excludesall=/"`
	Servers  []string `mapstructure:"servers" validate:"dive,url"`
	SigLevel []string `mapstructure:"siglevel" validate:"dive,siglevel"`
	Usage    []string `mapstructure:"usage" validate:"dive,oneof=Sync Search Install Upgrade All"`
}

// Config mirrors the handle options of pacman.conf.
type Config struct {
	Root               string   `mapstructure:"root" validate:"required"`
	DBPath             string   `mapstructure:"dbpath" validate:"required"`
	CacheDirs          []string `mapstructure:"cache_dirs"`
	HookDirs           []string `mapstructure:"hook_dirs"`
	GPGDir             string   `mapstructure:"gpgdir"`
	Logfile            string   `mapstructure:"logfile"`
	DBExt              string   `mapstructure:"dbext" validate:"omitempty,startswith=."`
	Architectures      []string `mapstructure:"architectures"`
	IgnorePkgs         []string `mapstructure:"ignore_pkgs"`
	IgnoreGroups       []string `mapstructure:"ignore_groups"`
	NoUpgrade          []string `mapstructure:"no_upgrade"`
	NoExtract          []string `mapstructure:"no_extract"`
	SigLevel           []string `mapstructure:"siglevel" validate:"dive,siglevel"`
	LocalFileSigLevel  []string `mapstructure:"local_file_siglevel" validate:"dive,siglevel"`
	RemoteFileSigLevel []string `mapstructure:"remote_file_siglevel" validate:"dive,siglevel"`
	ParallelDownloads  uint32   `mapstructure:"parallel_downloads" validate:"gte=1"`
	CheckSpace         bool     `mapstructure:"check_space"`
	UseSyslog          bool     `mapstructure:"use_syslog"`
	DisableDLTimeout   bool     `mapstructure:"disable_download_timeout"`
	Repos              []Repo   `mapstructure:"repos" validate:"dive"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Root:              DefaultRoot,
		DBPath:            DefaultDBPath,
		SigLevel:          []string{"Required", "DatabaseOptional"},
		ParallelDownloads: 1,
		CheckSpace:        true,
	}
}

// LoadOptions selects where Load reads from.
type LoadOptions struct {
	// ConfigFile is read if set; it must exist.
	ConfigFile string
	// Overrides are applied last, keyed like the file, e.g. "dbpath".
	Overrides map[string]any
}

// Load reads and validates the configuration.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("root", defaults.Root)
	v.SetDefault("dbpath", defaults.DBPath)
	v.SetDefault("cache_dirs", defaults.CacheDirs)
	v.SetDefault("hook_dirs", defaults.HookDirs)
	v.SetDefault("gpgdir", defaults.GPGDir)
	v.SetDefault("logfile", defaults.Logfile)
	v.SetDefault("dbext", defaults.DBExt)
	v.SetDefault("architectures", defaults.Architectures)
	v.SetDefault("ignore_pkgs", defaults.IgnorePkgs)
	v.SetDefault("ignore_groups", defaults.IgnoreGroups)
	v.SetDefault("no_upgrade", defaults.NoUpgrade)
	v.SetDefault("no_extract", defaults.NoExtract)
	v.SetDefault("siglevel", defaults.SigLevel)
	v.SetDefault("local_file_siglevel", defaults.LocalFileSigLevel)
	v.SetDefault("remote_file_siglevel", defaults.RemoteFileSigLevel)
	v.SetDefault("parallel_downloads", defaults.ParallelDownloads)
	v.SetDefault("check_space", defaults.CheckSpace)
	v.SetDefault("use_syslog", defaults.UseSyslog)
	v.SetDefault("disable_download_timeout", defaults.DisableDLTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}
	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("siglevel", func(fl validator.FieldLevel) bool {
		_, err := ParseSigLevel([]string{fl.Field().String()}, 0)
		return err == nil
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks field constraints and that repo names are unique.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]bool, len(c.Repos))
	for _, r := range c.Repos {
		if seen[r.Name] {
			return fmt.Errorf("invalid config: repo %q listed twice", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// Open creates a handle and applies every setting, registering the repos in
// order. The handle is released again if any step fails.
func (c *Config) Open(opts ...alpm.Option) (h *alpm.Alpm, err error) {
	h, err = alpm.New(c.Root, c.DBPath, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, h.Release())
			h = nil
		}
	}()

	if err := c.apply(h); err != nil {
		return nil, err
	}
	for _, r := range c.Repos {
		if err := c.register(h, r); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (c *Config) apply(h *alpm.Alpm) error {
	def, err := ParseSigLevel(c.SigLevel, defaultSigLevel)
	if err != nil {
		return err
	}
	local, err := ParseSigLevel(c.LocalFileSigLevel, def)
	if err != nil {
		return err
	}
	remote, err := ParseSigLevel(c.RemoteFileSigLevel, def)
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		run  func() error
		skip bool
	}{
		{"default siglevel", func() error { return h.SetDefaultSigLevel(def) }, false},
		{"local file siglevel", func() error { return h.SetLocalFileSigLevel(local) }, len(c.LocalFileSigLevel) == 0},
		{"remote file siglevel", func() error { return h.SetRemoteFileSigLevel(remote) }, len(c.RemoteFileSigLevel) == 0},
		{"cache dirs", func() error { return h.SetCacheDirs(c.CacheDirs) }, len(c.CacheDirs) == 0},
		{"hook dirs", func() error { return h.SetHookDirs(c.HookDirs) }, len(c.HookDirs) == 0},
		{"gpgdir", func() error { return h.SetGPGDir(c.GPGDir) }, c.GPGDir == ""},
		{"logfile", func() error { return h.SetLogfile(c.Logfile) }, c.Logfile == ""},
		{"dbext", func() error { return h.SetDBExt(c.DBExt) }, c.DBExt == ""},
		{"architectures", func() error { return h.SetArchitectures(c.Architectures) }, false},
		{"ignore pkgs", func() error { return h.SetIgnorePkgs(c.IgnorePkgs) }, false},
		{"ignore groups", func() error { return h.SetIgnoreGroups(c.IgnoreGroups) }, false},
		{"no upgrade", func() error { return h.SetNoUpgrades(c.NoUpgrade) }, false},
		{"no extract", func() error { return h.SetNoExtracts(c.NoExtract) }, false},
		{"parallel downloads", func() error { return h.SetParallelDownloads(c.ParallelDownloads) }, false},
		{"check space", func() error { return h.SetCheckSpace(c.CheckSpace) }, false},
		{"use syslog", func() error { return h.SetUseSyslog(c.UseSyslog) }, false},
		{"download timeout", func() error { return h.SetDisableDLTimeout(c.DisableDLTimeout) }, false},
	}
	for _, s := range steps {
		if s.skip {
			continue
		}
		if err := s.run(); err != nil {
			return fmt.Errorf("apply %s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) register(h *alpm.Alpm, r Repo) error {
	level := alpm.SigUseDefault
	if len(r.SigLevel) > 0 {
		def, err := h.DefaultSigLevel()
		if err != nil {
			return err
		}
		if level, err = ParseSigLevel(r.SigLevel, def); err != nil {
			return err
		}
	}
	db, err := h.RegisterSyncDB(r.Name, level)
	if err != nil {
		return fmt.Errorf("register repo %s: %w", r.Name, err)
	}
	if len(r.Servers) > 0 {
		if err := db.SetServers(r.Servers); err != nil {
			return fmt.Errorf("servers of repo %s: %w", r.Name, err)
		}
	}
	if len(r.Usage) > 0 {
		usage, err := ParseUsage(r.Usage)
		if err != nil {
			return err
		}
		if err := db.SetUsage(usage); err != nil {
			return fmt.Errorf("usage of repo %s: %w", r.Name, err)
		}
	}
	return nil
}
