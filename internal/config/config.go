// Package config resolves CLI settings from flags, environment, .env files, an
// optional config file and built-in defaults, in that order of precedence.
// The superuser password may come from any of these layers; when none sets it
// the OS keychain is consulted by the auth package.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/logging"
	"trendseed/cli/internal/xdg"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys of every setting, as used in config files and flag bindings.
const (
	KeyURL            = "url"
	KeyIdentity       = "identity"
	KeyPassword       = "password"
	KeyCollection     = "collection"
	KeyTimeout        = "timeout"
	KeyOpenRules      = "open_rules"
	KeyVerbose        = "verbose"
	KeySourceFile     = "source.file"
	KeySourceSheet    = "source.sheet"
	KeyAuthAttempts   = "auth.attempts"
	KeyAuthBackoff    = "auth.backoff"
	KeyImportRate     = "import.rate"
	KeyVerifyPerPage  = "verify.per_page"
	envPrefix         = "TRENDSEED"
	configName        = "trendseed"
	DefaultURL        = "http://127.0.0.1:8090"
	DefaultCollection = "search_trends"
	DefaultSourceFile = "trends.csv"
)

// Config holds the effective CLI settings.
type Config struct {
	URL        string        `mapstructure:"url" yaml:"url"`
	Identity   string        `mapstructure:"identity" yaml:"identity"`
	Password   string        `mapstructure:"password" yaml:"password"`
	Collection string        `mapstructure:"collection" yaml:"collection"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	OpenRules  bool          `mapstructure:"open_rules" yaml:"open_rules"`
	Verbose    bool          `mapstructure:"verbose" yaml:"verbose"`
	Source     SourceConfig  `mapstructure:"source" yaml:"source"`
	Auth       AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Import     ImportConfig  `mapstructure:"import" yaml:"import"`
	Verify     VerifyConfig  `mapstructure:"verify" yaml:"verify"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// SourceConfig selects the rows to import.
type SourceConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Sheet string `mapstructure:"sheet" yaml:"sheet,omitempty"`
}

// AuthConfig tunes the authentication retry loop.
type AuthConfig struct {
	Attempts int           `mapstructure:"attempts" yaml:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff" yaml:"backoff"`
}

// ImportConfig tunes the importer.
type ImportConfig struct {
	// Rate caps record creation per second; 0 is unlimited.
	Rate float64 `mapstructure:"rate" yaml:"rate"`
}

// VerifyConfig tunes the verifier.
type VerifyConfig struct {
	PerPage int `mapstructure:"per_page" yaml:"per_page"`
}

// Options control where Load looks.
type Options struct {
	// File is an explicit config file. A missing explicit file is an error.
	File string
	// SearchPaths are searched for trendseed.{yaml,json,toml} when File is empty.
	// Nil means the working directory and the XDG config directory.
	SearchPaths []string
	// DotEnv files are loaded into the process environment first. Existing
	// variables are never overwritten. Nil means .env.local then .env.
	DotEnv []string
	// Flags maps setting keys to command-line flags. Changed flags win over everything.
	Flags map[string]*pflag.Flag
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyURL, DefaultURL)
	v.SetDefault(KeyIdentity, "")
	v.SetDefault(KeyPassword, "")
	v.SetDefault(KeyCollection, DefaultCollection)
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyOpenRules, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeySourceFile, DefaultSourceFile)
	v.SetDefault(KeySourceSheet, "")
	v.SetDefault(KeyAuthAttempts, 5)
	v.SetDefault(KeyAuthBackoff, time.Second)
	v.SetDefault(KeyImportRate, 0.0)
	v.SetDefault(KeyVerifyPerPage, 1)
}

// bindEnv wires TRENDSEED_* for every key plus the variable names used by the
// PocketBase tooling this CLI replaces.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string][]string{
		KeyURL:      {"TRENDSEED_URL", "POCKETBASE_URL", "NEXT_PUBLIC_POCKETBASE_URL"},
		KeyIdentity: {"TRENDSEED_IDENTITY", "POCKETBASE_ADMIN_EMAIL"},
		KeyPassword: {"TRENDSEED_PASSWORD", "POCKETBASE_ADMIN_PASSWORD"},
	}
	for key, names := range aliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

func loadDotEnv(files []string) error {
	if files == nil {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func readConfigFile(v *viper.Viper, opts Options) error {
	if opts.File != "" {
		v.SetConfigFile(opts.File)
		return v.ReadInConfig()
	}

	paths := opts.SearchPaths
	if paths == nil {
		paths = []string{"."}
		if dir, err := xdg.ConfigDir(); err == nil {
			paths = append(paths, dir)
		}
	}
	v.SetConfigName(configName)
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// Load resolves the effective configuration and validates it.
func Load(opts Options) (Config, error) {
	var c Config
	if err := loadDotEnv(opts.DotEnv); err != nil {
		return c, apperr.Wrap(apperr.Config, "read .env", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return c, apperr.Wrap(apperr.Config, "bind environment", err)
	}
	if err := readConfigFile(v, opts); err != nil {
		return c, apperr.Wrap(apperr.Config, "read config file", err)
	}
	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return c, apperr.Wrap(apperr.Config, "bind flag --"+flag.Name, err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, apperr.Wrap(apperr.Config, "decode configuration", err)
	}
	c.File = v.ConfigFileUsed()
	c.URL = strings.TrimSpace(c.URL)
	c.Identity = strings.TrimSpace(c.Identity)
	c.Collection = strings.TrimSpace(c.Collection)

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	var problems []string
	if c.URL == "" {
		problems = append(problems, "url is required")
	} else if u, err := url.Parse(c.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("url %q must be an absolute http(s) URL", c.URL))
	}
	if c.Collection == "" {
		problems = append(problems, "collection is required")
	}
	if c.Timeout < 0 {
		problems = append(problems, "timeout must not be negative")
	}
	if c.Auth.Attempts < 1 {
		problems = append(problems, "auth.attempts must be at least 1")
	}
	if c.Auth.Backoff < 0 {
		problems = append(problems, "auth.backoff must not be negative")
	}
	if c.Import.Rate < 0 {
		problems = append(problems, "import.rate must not be negative")
	}
	if c.Verify.PerPage < 1 {
		problems = append(problems, "verify.per_page must be at least 1")
	}
	if len(problems) > 0 {
		return apperr.New(apperr.Config, strings.Join(problems, "; "))
	}
	return nil
}

// Redacted returns a copy safe to print: the password is masked and the URL
// has its userinfo removed.
func (c Config) Redacted() Config {
	out := c
	out.Password = logging.MaskSecret(c.Password)
	out.URL = logging.Mask(c.URL)
	return out
}

// SourcePath returns the source file resolved against the working directory.
func (c Config) SourcePath() string {
	if c.Source.File == "" || filepath.IsAbs(c.Source.File) {
		return c.Source.File
	}
	if abs, err := filepath.Abs(c.Source.File); err == nil {
		return abs
	}
	return c.Source.File
}
