package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvRequestTimeout, "")

	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)
	require.Equal(t, Defaults(), s)
	require.Zero(t, s.RequestTimeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvRequestTimeout, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server: https://insights.example.com
greeting: Welcome back.
request-timeout: 45s
log-level: debug
log-file: /tmp/csvassist.log
`), 0o600))

	s, err := Load(path, true)
	require.NoError(t, err)
	require.Equal(t, "https://insights.example.com", s.Server)
	require.Equal(t, "Welcome back.", s.Greeting)
	require.Equal(t, 45*time.Second, s.RequestTimeout)
	require.Equal(t, "debug", s.LogLevel)
	require.Equal(t, "/tmp/csvassist.log", s.LogFile)
	require.Equal(t, DefaultTokenModel, s.TokenModel)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://file:5000\nlog-level: warn\n"), 0o600))

	t.Setenv(EnvServer, "http://env:5000")
	t.Setenv(EnvLogLevel, "trace")
	t.Setenv(EnvRequestTimeout, "2m")

	s, err := Load(path, true)
	require.NoError(t, err)
	require.Equal(t, "http://env:5000", s.Server)
	require.Equal(t, "trace", s.LogLevel)
	require.Equal(t, 2*time.Minute, s.RequestTimeout)
}

func TestInvalidTimeoutFromEnvironment(t *testing.T) {
	t.Setenv(EnvRequestTimeout, "soon")
	_, err := Load("", false)
	require.Error(t, err)
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
	_, err := Load(path, true)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvRequestTimeout, "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	s := Defaults()
	s.Server = "http://saved:1234"
	s.RequestTimeout = 10 * time.Second
	require.NoError(t, s.Save(path))

	loaded, err := Load(path, true)
	require.NoError(t, err)
	require.Equal(t, s, loaded)
}

func TestEnvNames(t *testing.T) {
	require.Equal(t, "CSVASSIST_SERVER", EnvServer)
	require.Equal(t, "CSVASSIST_REQUEST_TIMEOUT", EnvRequestTimeout)
	require.Equal(t, "CSVASSIST_TOKEN_MODEL", EnvName(KeyTokenModel))
}

func TestFromViperPrecedence(t *testing.T) {
	t.Setenv(EnvServer, "http://env:2")
	t.Setenv(EnvRequestTimeout, "")
	t.Setenv(EnvName(KeyTokenModel), "gpt-4o")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://file:1\nrequest-timeout: 5s\ngreeting: Hi.\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyServer, "", "")
	flags.Duration(KeyRequestTimeout, 0, "")
	require.NoError(t, flags.Parse([]string{"--request-timeout", "9s"}))

	v := viper.New()
	require.NoError(t, Register(v))
	require.NoError(t, v.BindPFlags(flags))
	require.NoError(t, ReadFile(v, path, true))

	s, err := FromViper(v)
	require.NoError(t, err)
	require.Equal(t, "http://env:2", s.Server)
	require.Equal(t, 9*time.Second, s.RequestTimeout)
	require.Equal(t, "Hi.", s.Greeting)
	require.Equal(t, "gpt-4o", s.TokenModel)
	require.Equal(t, DefaultLogLevel, s.LogLevel)

	require.NoError(t, flags.Parse([]string{"--server", "http://flag:3"}))
	s, err = FromViper(v)
	require.NoError(t, err)
	require.Equal(t, "http://flag:3", s.Server)
}

func TestNegativeTimeoutIsRejected(t *testing.T) {
	t.Setenv(EnvRequestTimeout, "-1s")
	_, err := Load("", false)
	require.Error(t, err)
}

func TestRegisterTwice(t *testing.T) {
	v := viper.New()
	require.NoError(t, Register(v))
	require.NoError(t, Register(v))
	require.Equal(t, DefaultServer, v.GetString(KeyServer))
}
