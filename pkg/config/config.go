package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	AppName   = "csvassist"
	EnvPrefix = "CSVASSIST"

	KeyServer         = "server"
	KeyGreeting       = "greeting"
	KeyRequestTimeout = "request-timeout"
	KeyLogLevel       = "log-level"
	KeyLogFile        = "log-file"
	KeyTokenModel     = "token-model"

	DefaultServer     = "http://localhost:5000"
	DefaultLogLevel   = "info"
	DefaultTokenModel = "gpt-4"
)

// Keys lists every setting csvassist reads, in display order.
var Keys = []string{
	KeyServer,
	KeyGreeting,
	KeyRequestTimeout,
	KeyLogLevel,
	KeyLogFile,
	KeyTokenModel,
}

var (
	EnvServer         = EnvName(KeyServer)
	EnvLogLevel       = EnvName(KeyLogLevel)
	EnvRequestTimeout = EnvName(KeyRequestTimeout)
)

// Settings is the typed view of the viper keys above.
type Settings struct {
	Server         string        `yaml:"server"`
	Greeting       string        `yaml:"greeting,omitempty"`
	RequestTimeout time.Duration `yaml:"request-timeout,omitempty"`
	LogLevel       string        `yaml:"log-level,omitempty"`
	LogFile        string        `yaml:"log-file,omitempty"`
	TokenModel     string        `yaml:"token-model,omitempty"`
}

func Defaults() Settings {
	return Settings{
		Server:     DefaultServer,
		LogLevel:   DefaultLogLevel,
		TokenModel: DefaultTokenModel,
	}
}

// EnvName maps a key such as request-timeout to CSVASSIST_REQUEST_TIMEOUT.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Register sets the defaults and binds the environment variable of every key.
// It can be called more than once on the same viper instance.
func Register(v *viper.Viper) error {
	d := Defaults()
	v.SetDefault(KeyServer, d.Server)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyTokenModel, d.TokenModel)
	v.SetDefault(KeyRequestTimeout, time.Duration(0))

	for _, key := range Keys {
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return errors.Wrapf(err, "failed to bind %s", EnvName(key))
		}
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/csvassist/config.yaml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate config directory")
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// ReadFile loads the YAML file at path into v. A missing file is ignored
// unless explicit is set.
func ReadFile(v *viper.Viper, path string, explicit bool) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)) {
			return nil
		}
		return errors.Wrapf(err, "failed to read %s", path)
	}
	return nil
}

// FromViper decodes the settings with viper's precedence: flags, then
// environment, then config file, then defaults.
func FromViper(v *viper.Viper) (Settings, error) {
	timeout, err := cast.ToDurationE(v.Get(KeyRequestTimeout))
	if err != nil {
		return Settings{}, errors.Wrapf(err, "invalid %s", KeyRequestTimeout)
	}
	if timeout < 0 {
		return Settings{}, errors.Errorf("%s must not be negative", KeyRequestTimeout)
	}

	s := Settings{
		Server:         strings.TrimSpace(v.GetString(KeyServer)),
		Greeting:       v.GetString(KeyGreeting),
		RequestTimeout: timeout,
		LogLevel:       strings.TrimSpace(v.GetString(KeyLogLevel)),
		LogFile:        strings.TrimSpace(v.GetString(KeyLogFile)),
		TokenModel:     strings.TrimSpace(v.GetString(KeyTokenModel)),
	}
	s.fillDefaults()
	return s, nil
}

// Load reads the file at path and the environment into a fresh viper
// instance and returns the resulting settings.
func Load(path string, explicit bool) (Settings, error) {
	v := viper.New()
	if err := Register(v); err != nil {
		return Settings{}, err
	}
	if path != "" {
		if err := ReadFile(v, path, explicit); err != nil {
			return Settings{}, err
		}
	}
	return FromViper(v)
}

func (s *Settings) fillDefaults() {
	if s.Server == "" {
		s.Server = DefaultServer
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.TokenModel == "" {
		s.TokenModel = DefaultTokenModel
	}
}

// Save writes settings to path, creating the parent directory.
func (s Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
