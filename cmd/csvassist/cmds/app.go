package cmds

import (
	"context"
	"io"
	"os"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/csvassist/pkg/client"
	"github.com/go-go-golems/csvassist/pkg/config"
	"github.com/go-go-golems/csvassist/pkg/session"
	"github.com/go-go-golems/csvassist/pkg/ui/runtime"
)

// App carries the settings shared by all commands. It is filled in by
// Load, which the root command runs before any subcommand.
type App struct {
	ConfigPath string
	Settings   config.Settings

	v          *viper.Viper
	initLogger func() error
}

// NewApp reads its settings from v. The root command passes the global
// viper instance that clay.InitViper set up.
func NewApp(v *viper.Viper) *App {
	return &App{
		Settings:   config.Defaults(),
		v:          v,
		initLogger: clay.InitLogger,
	}
}

// AddPersistentFlags registers the flags that override the config file.
// --config and the logging flags come from clay.InitViper.
func (a *App) AddPersistentFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String(config.KeyServer, "", "Base URL of the analysis backend (default "+config.DefaultServer+")")
	f.Duration(config.KeyRequestTimeout, 0, "Timeout for backend requests (0 waits indefinitely)")
}

// Load resolves settings from defaults, config file, environment and flags,
// then reconfigures logging.
func (a *App) Load(cmd *cobra.Command) error {
	if err := config.Register(a.v); err != nil {
		return err
	}

	flags := cmd.Flags()
	for _, key := range []string{config.KeyServer, config.KeyRequestTimeout} {
		if f := flags.Lookup(key); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return errors.Wrapf(err, "failed to bind --%s", key)
			}
		}
	}

	path := ""
	if f := flags.Lookup("config"); f != nil {
		path = f.Value.String()
	}
	switch {
	case path != "":
		if a.v.ConfigFileUsed() != path {
			if err := config.ReadFile(a.v, path, true); err != nil {
				return err
			}
		}
	case a.v.ConfigFileUsed() == "":
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		if err := config.ReadFile(a.v, p, false); err != nil {
			return err
		}
	}
	a.ConfigPath = a.v.ConfigFileUsed()

	s, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	a.Settings = s

	// reinitialize the logger because we can now parse --log-level and co
	// from the command line flags
	return a.initLogger()
}

// quietLogs drops console logging while a full-screen program owns the
// terminal. A configured log file keeps receiving everything.
func (a *App) quietLogs() {
	if a.Settings.LogFile == "" {
		log.Logger = log.Logger.Output(io.Discard)
	}
}

func (a *App) NewClient() (*client.APIClient, error) {
	var options []client.Option
	if a.Settings.RequestTimeout > 0 {
		options = append(options, client.WithTimeout(a.Settings.RequestTimeout))
	}
	c, err := client.NewAPIClient(a.Settings.Server, options...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid server address")
	}
	return c, nil
}

// NewBuilder returns a chat builder bound to the configured backend.
func (a *App) NewBuilder(ctx context.Context) (*runtime.ChatBuilder, *client.APIClient, error) {
	c, err := a.NewClient()
	if err != nil {
		return nil, nil, err
	}
	return runtime.NewChatBuilder().
		WithContext(ctx).
		WithAssistant(c).
		WithSessionOptions(session.WithGreeting(a.Settings.Greeting)), c, nil
}

// terminal returns the file behind a command stream when it is a TTY.
func terminal(stream interface{}) (*os.File, bool) {
	f, ok := stream.(*os.File)
	if !ok {
		return nil, false
	}
	fd := f.Fd()
	return f, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
