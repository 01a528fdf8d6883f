package cmds

import (
	"context"
	"fmt"
	"os"

	"github.com/go-go-golems/glazed/pkg/cli"
	glazed_cmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/csvassist/pkg/config"
)

func NewConfigGroupCommand(app *App) (*cobra.Command, error) {
	cobraCmd := &cobra.Command{
		Use:   "config",
		Short: "Commands for inspecting and creating the configuration file",
	}

	showCmd, err := NewConfigShowCommand(app)
	if err != nil {
		return nil, err
	}
	command, err := cli.BuildCobraCommand(showCmd)
	if err != nil {
		return nil, err
	}
	cobraCmd.AddCommand(command)

	cobraCmd.AddCommand(newConfigInitCommand(app))
	cobraCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), app.ConfigPath)
			return err
		},
	})

	return cobraCmd, nil
}

type ConfigShowCommand struct {
	*glazed_cmds.CommandDescription
	app *App
}

var _ glazed_cmds.GlazeCommand = (*ConfigShowCommand)(nil)

func NewConfigShowCommand(app *App) (*ConfigShowCommand, error) {
	glazedSection, err := settings.NewGlazedSection()
	if err != nil {
		return nil, err
	}
	commandSettingsSection, err := cli.NewCommandSettingsSection()
	if err != nil {
		return nil, err
	}

	return &ConfigShowCommand{
		CommandDescription: glazed_cmds.NewCommandDescription(
			"show",
			glazed_cmds.WithShort("Print the effective settings after file, environment and flags"),
			glazed_cmds.WithSections(glazedSection, commandSettingsSection),
		),
		app: app,
	}, nil
}

func (c *ConfigShowCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedValues *values.Values,
	gp middlewares.Processor,
) error {
	for _, row := range settingsRows(c.app.Settings) {
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// settingsRows returns one key/value/env row per setting.
func settingsRows(s config.Settings) []types.Row {
	byKey := map[string]interface{}{
		config.KeyServer:         s.Server,
		config.KeyGreeting:       s.Greeting,
		config.KeyRequestTimeout: s.RequestTimeout.String(),
		config.KeyLogLevel:       s.LogLevel,
		config.KeyLogFile:        s.LogFile,
		config.KeyTokenModel:     s.TokenModel,
	}

	rows := make([]types.Row, 0, len(config.Keys))
	for _, key := range config.Keys {
		rows = append(rows, types.NewRow(
			types.MRP("key", key),
			types.MRP("value", byKey[key]),
			types.MRP("env", config.EnvName(key)),
		))
	}
	return rows
}

func newConfigInitCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective settings to a config file (default: the config path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := app.Settings.Save(path); err != nil {
				return err
			}
			log.Info().Str("path", path).Msg("wrote config file")
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
