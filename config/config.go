package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"raceserver/logging"
)

const DefaultFileName = "ServerConfig.toml"

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// The global, read-only config variable.
var (
	cfg  *Config
	once sync.Once
)

// LoadConfig reads the config file, parses it, and initializes the global cfg variable.
// It ensures that the configuration is set only once.
func LoadConfig(configFile string) (*Config, error) {
	var err error
	once.Do(func() {
		var configuration *Config
		configuration, err = Load(configFile)
		if err != nil {
			return
		}
		cfg = configuration
	})

	if err != nil {
		return nil, err
	}

	if cfg == nil {
		return nil, errors.New("configuration was not set")
	}

	return cfg, nil
}

// GetConfig returns the loaded configuration.
// It panics if the configuration has not been set.
func GetConfig() *Config {
	if cfg == nil {
		panic("Config has not been set! Call LoadConfig first.")
	}
	return cfg
}

// Default returns the configuration a fresh install starts with.
func Default() *Config {
	v := newViper()
	var c Config
	if err := decode(v, &c); err != nil {
		panic(fmt.Sprintf("default config does not decode: %v", err))
	}
	return &c
}

// Load reads and validates the config file at path. A missing file is created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		def := Default()
		if err := def.Save(path); err != nil {
			return nil, fmt.Errorf("error writing default config: %w", err)
		}
		log.Warnf("No config file found, wrote defaults to %s", path)
		return def, nil
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	// Read in the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	for _, key := range unknownKeys(v) {
		log.Warnf("Ignoring unknown config key %q", key)
	}

	var configuration Config
	if err := decode(v, &configuration); err != nil {
		return nil, err
	}

	// Validation
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Save writes every section and key to path, keeping key case as documented.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper, out *Config) error {
	if err := checkTypes(v); err != nil {
		return err
	}
	// Unmarshal the config into the Config struct
	err := v.Unmarshal(out, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = false
	})
	if err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	if out.Race.ExpectedClients == nil {
		out.Race.ExpectedClients = []string{}
	}
	if out.Track.Checkpoints == nil {
		out.Track.Checkpoints = []string{}
	}
	return nil
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	checkPort := func(name string, port int) {
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s must be between 1 and 65535, got %d", name, port))
		}
	}

	if c.General.Name == "" {
		errs = append(errs, errors.New("General.Name is required"))
	}
	if c.General.Map == "" {
		errs = append(errs, errors.New("General.Map is required"))
	}
	checkPort("General.Port", c.General.Port)
	if c.General.MaxPlayers < 1 {
		errs = append(errs, fmt.Errorf("General.MaxPlayers must be at least 1, got %d", c.General.MaxPlayers))
	}
	if c.General.MaxCars < 1 {
		errs = append(errs, fmt.Errorf("General.MaxCars must be at least 1, got %d", c.General.MaxCars))
	}

	if c.HTTP.HTTPServerEnabled {
		checkPort("HTTP.HTTPServerPort", c.HTTP.HTTPServerPort)
		if c.HTTP.UseSSL && (c.HTTP.SSLKeyPath == "" || c.HTTP.SSLCertPath == "") {
			errs = append(errs, errors.New("HTTP.SSLKeyPath and HTTP.SSLCertPath are required when HTTP.UseSSL is set"))
		}
	}

	if c.Race.OverlayPort != 0 {
		checkPort("Race.OverlayPort", c.Race.OverlayPort)
	}
	if c.Race.MaxLaps < 1 {
		errs = append(errs, fmt.Errorf("Race.MaxLaps must be at least 1, got %d", c.Race.MaxLaps))
	}
	for name, secs := range map[string]int{
		"Race.QualifyingSeconds":    c.Race.QualifyingSeconds,
		"Race.JoinWindowSeconds":    c.Race.JoinWindowSeconds,
		"Race.LineUpTimeoutSeconds": c.Race.LineUpTimeoutSeconds,
		"Race.FinishLingerSeconds":  c.Race.FinishLingerSeconds,
		"Race.Countdown":            c.Race.Countdown,
	} {
		if secs < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, secs))
		}
	}
	return errors.Join(errs...)
}

// GameAddr is the listen address for game connections.
func (c *Config) GameAddr() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(c.General.Port))
}

// OverlayAddr is the listen address for broadcast overlays.
func (c *Config) OverlayAddr() string {
	port := c.Race.OverlayPort
	if port == 0 {
		port = c.General.Port + 1
	}
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
}

// HTTPAddr is the listen address of the embedded HTTP server.
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.HTTP.HTTPServerIP, strconv.Itoa(c.HTTP.HTTPServerPort))
}

// PublicListing reports whether the server should announce itself to the server list.
func (c *Config) PublicListing() bool {
	return !c.General.Private && c.General.AuthKey != ""
}

// TelemetryEnabled reports whether crash reports can be uploaded.
func (c *Config) TelemetryEnabled() bool {
	t := c.Telemetry
	return c.Misc.SendErrors && t.Endpoint != "" && t.AccessKey != "" && t.SecretKey != "" && t.Bucket != ""
}
