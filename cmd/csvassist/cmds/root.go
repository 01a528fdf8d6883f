package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the csvassist command tree around app. The
// caller adds --config and the logging flags with clay.InitViper.
func NewRootCommand(app *App, version string) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "csvassist",
		Short: "csvassist is a terminal client for the business data assistant",
		Long: "csvassist talks to the business assistant backend: ask questions about revenue, " +
			"costs and performance, or upload CSV files for analysis.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Load(cmd)
		},
	}
	app.AddPersistentFlags(rootCmd)

	tokensCmd, err := NewTokensCommand(app)
	if err != nil {
		return nil, err
	}
	configCmd, err := NewConfigGroupCommand(app)
	if err != nil {
		return nil, err
	}

	rootCmd.AddCommand(
		NewChatCommand(app),
		NewAskCommand(app),
		NewUploadCommand(app),
		tokensCmd,
		configCmd,
		NewVersionCommand(version),
	)

	return rootCmd, nil
}

func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
