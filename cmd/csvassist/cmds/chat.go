package cmds

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/csvassist/pkg/tokens"
	"github.com/go-go-golems/csvassist/pkg/ui"
)

func NewChatCommand(app *App) *cobra.Command {
	var (
		plain         bool
		markdownStyle string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session with the business assistant",
		Long: "Start an interactive session. On a terminal this opens a full-screen chat; " +
			"with --plain, or when input or output is redirected, it reads one message per line.\n\n" + ui.HelpText,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			builder, c, err := app.NewBuilder(ctx)
			if err != nil {
				return err
			}
			counter := tokens.NewCounter(app.Settings.TokenModel)

			stdin, inTTY := terminal(cmd.InOrStdin())
			_, outTTY := terminal(cmd.OutOrStdout())
			if plain || !inTTY || !outTTY {
				reader := ui.NewScannerReader(cmd.InOrStdin())
				if inTTY {
					reader = ui.NewPromptReader(stdin, cmd.OutOrStdout())
				}
				_, repl, err := builder.
					WithREPLOptions(ui.WithREPLTokenCounter(counter)).
					BuildREPL(reader, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				return repl.Run(ctx)
			}

			app.quietLogs()

			sess, program, err := builder.
				WithModelOptions(
					ui.WithMarkdownStyle(markdownStyle),
					ui.WithTokenCounter(counter),
					ui.WithServerLabel(c.Server()),
				).
				WithProgramOptions(tea.WithAltScreen(), tea.WithContext(ctx)).
				BuildProgram()
			if err != nil {
				return err
			}
			log.Info().Str("session_id", sess.Session.ID()).Str("server", c.Server()).Msg("starting chat")

			if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return errors.Wrap(err, "chat UI failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Use the line-oriented interface even on a terminal")
	cmd.Flags().StringVar(&markdownStyle, "markdown-style", "dark", "Glamour style for assistant replies (dark, light, notty, ...; empty disables markdown)")

	return cmd
}
