package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cfg     *APIConfig
	loadErr error
	once    sync.Once
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName     xml.Name      `xml:"API"`
	RequestDump bool          `xml:"REQUEST_DUMP,attr"`
	Context     ContextConfig `xml:"CONTEXT"`
	Quiz        QuizConfig    `xml:"QUIZ"`
	Locale      LocaleConfig  `xml:"LOCALE"`
	Report      ReportConfig  `xml:"REPORT"`
	Images      ImagesConfig  `xml:"IMAGES"`
	Log         LogConfig     `xml:"LOG"`
	DB          DBConfig      `xml:"DB"`

	// Secrets are never read from the XML file.
	Secrets Secrets `xml:"-"`
}

// ContextConfig holds basic server settings.
type ContextConfig struct {
	Port            int    `xml:"PORT"`
	Host            string `xml:"HOST"`
	PublicURL       string `xml:"PUBLIC_URL"`
	ShutdownTimeout int    `xml:"SHUTDOWN_TIMEOUT"`
	AllowOrigins    string `xml:"ALLOW_ORIGINS"`
}

// QuizConfig holds quiz pacing and report scaling.
type QuizConfig struct {
	LockDelayMS int `xml:"LOCK_DELAY_MS"`
	ScaleMax    int `xml:"SCALE_MAX"`
}

type LocaleConfig struct {
	CookieName string `xml:"COOKIE_NAME"`
}

// ReportConfig holds PDF report settings.
type ReportConfig struct {
	CacheSize int    `xml:"CACHE_SIZE"`
	FontPath  string `xml:"FONT_PATH"`
	FontName  string `xml:"FONT_NAME"`
}

// ImagesConfig configures the offline profile-image pipeline.
type ImagesConfig struct {
	StaticDir      string  `xml:"STATIC_DIR"`
	ReferenceDir   string  `xml:"REFERENCE_DIR"`
	APIBase        string  `xml:"API_BASE"`
	Model          string  `xml:"MODEL"`
	RatePerSecond  float64 `xml:"RATE_PER_SECOND"`
	Burst          int     `xml:"BURST"`
	Concurrency    int     `xml:"CONCURRENCY"`
	TimeoutSeconds int     `xml:"TIMEOUT_SECONDS"`
}

type LogConfig struct {
	Dir        string `xml:"DIR"`
	Level      string `xml:"LEVEL"`
	MaxSizeMB  int    `xml:"MAX_SIZE_MB"`
	MaxBackups int    `xml:"MAX_BACKUPS"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Initialize bool         `xml:"INITIALIZE"`
	Host       string       `xml:"HOST"`
	Port       int          `xml:"PORT"`
	SSLMode    string       `xml:"SSL_MODE"`
	Name       string       `xml:"NAME"`
	Username   string       `xml:"USERNAME"`
	Password   DBPassword   `xml:"PASSWORD"`
	Pool       DBPoolConfig `xml:"POOL"`
}

// DBPassword holds password details. TYPE="env" means the value is supplied through
// DB_PASSWORD instead of the file.
type DBPassword struct {
	Type  string `xml:"TYPE,attr"`
	Value string `xml:",chardata"`
}

// DBPoolConfig holds database connection pooling settings.
type DBPoolConfig struct {
	MaxOpenConns    int `xml:"MAX_OPEN_CONNS"`
	MaxIdleConns    int `xml:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int `xml:"CONN_MAX_LIFETIME"`
}

// Secrets come from the environment, optionally seeded by a .env file.
type Secrets struct {
	ImageAPIKey string `env:"IMAGE_API_KEY"`
	DBPassword  string `env:"DB_PASSWORD"`
}

// Default returns the configuration used when a field is left out of the file.
func Default() APIConfig {
	return APIConfig{
		Context: ContextConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			PublicURL:       "http://localhost:8080",
			ShutdownTimeout: 10,
			AllowOrigins:    "*",
		},
		Quiz:   QuizConfig{LockDelayMS: 400, ScaleMax: 20},
		Locale: LocaleConfig{CookieName: "app-language"},
		Report: ReportConfig{CacheSize: 64, FontName: "NotoSansSC"},
		Images: ImagesConfig{
			StaticDir:      "static",
			ReferenceDir:   "static/references",
			APIBase:        "https://api.gpt.ge",
			Model:          "nano-banana-pro",
			RatePerSecond:  0.5,
			Burst:          1,
			Concurrency:    2,
			TimeoutSeconds: 120,
		},
		Log: LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 5},
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Name:    "crypto_persona",
			Pool:    DBPoolConfig{MaxOpenConns: 10, MaxIdleConns: 2, ConnMaxLifetime: 300},
		},
	}
}

// LoadConfig loads and parses the XML configuration from the given file. It runs once
// per process; later calls return the first outcome.
func LoadConfig(xmlPath string) (*APIConfig, error) {
	once.Do(func() {
		cfg, loadErr = Load(xmlPath)
	})
	return cfg, loadErr
}

// Load reads a configuration file without touching the process-wide copy. A missing
// file yields the defaults.
func Load(xmlPath string) (*APIConfig, error) {
	c := Default()
	if xmlPath != "" {
		data, err := readFile(xmlPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := Parse(data, &c); err != nil {
				return nil, err
			}
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()
	if err := env.Parse(&c.Secrets); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if c.DB.Password.Type != "env" && c.Secrets.DBPassword == "" {
		c.Secrets.DBPassword = c.DB.Password.Value
	}
	return &c, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return data, nil
}

// Parse decodes data over c, then restores defaults for zero values.
func Parse(data []byte, c *APIConfig) error {
	if err := xml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return c.Validate()
}

func (c *APIConfig) applyDefaults() {
	def := Default()
	setInt(&c.Context.Port, def.Context.Port)
	setString(&c.Context.Host, def.Context.Host)
	setString(&c.Context.PublicURL, def.Context.PublicURL)
	setInt(&c.Context.ShutdownTimeout, def.Context.ShutdownTimeout)
	setString(&c.Context.AllowOrigins, def.Context.AllowOrigins)
	setInt(&c.Quiz.ScaleMax, def.Quiz.ScaleMax)
	setString(&c.Locale.CookieName, def.Locale.CookieName)
	setInt(&c.Report.CacheSize, def.Report.CacheSize)
	setString(&c.Report.FontName, def.Report.FontName)
	setString(&c.Images.StaticDir, def.Images.StaticDir)
	setString(&c.Images.ReferenceDir, def.Images.ReferenceDir)
	setString(&c.Images.APIBase, def.Images.APIBase)
	setString(&c.Images.Model, def.Images.Model)
	if c.Images.RatePerSecond <= 0 {
		c.Images.RatePerSecond = def.Images.RatePerSecond
	}
	setInt(&c.Images.Burst, def.Images.Burst)
	setInt(&c.Images.Concurrency, def.Images.Concurrency)
	setInt(&c.Images.TimeoutSeconds, def.Images.TimeoutSeconds)
	setString(&c.Log.Level, def.Log.Level)
	setInt(&c.DB.Port, def.DB.Port)
	setString(&c.DB.Host, def.DB.Host)
	setString(&c.DB.SSLMode, def.DB.SSLMode)
	setString(&c.DB.Name, def.DB.Name)
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

// Validate rejects values no default can repair.
func (c *APIConfig) Validate() error {
	if c.Context.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Context.Port)
	}
	if c.Quiz.LockDelayMS < 0 {
		return fmt.Errorf("invalid lock delay %dms", c.Quiz.LockDelayMS)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Context.Host, c.Context.Port)
}

func (c *APIConfig) LockDelay() time.Duration {
	return time.Duration(c.Quiz.LockDelayMS) * time.Millisecond
}

func (c *APIConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.Context.ShutdownTimeout) * time.Second
}

// DSN is the postgres connection string of the image ledger.
func (c *APIConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.Username, c.Secrets.DBPassword, c.DB.Name, c.DB.SSLMode)
}

// GetConfig returns the loaded configuration.
func GetConfig() *APIConfig {
	return cfg
}
