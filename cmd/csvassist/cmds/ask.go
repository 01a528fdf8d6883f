package cmds

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/csvassist/pkg/render"
	"github.com/go-go-golems/csvassist/pkg/session"
)

func NewAskCommand(app *App) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: "Send one message to the assistant and print the transcript",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			if strings.TrimSpace(message) == "" {
				return errors.New("message must not be blank")
			}

			c, err := app.NewClient()
			if err != nil {
				return err
			}

			out := render.NewWriterRenderer(cmd.OutOrStdout())
			if quiet {
				reply, err := c.Chat(cmd.Context(), message, []session.Turn{})
				if err != nil {
					return err
				}
				out.Lines(reply)
				return nil
			}

			s := session.New(c, out, session.WithGreeting(app.Settings.Greeting))
			s.Start()
			s.SubmitText(cmd.Context(), message)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the reply and fail if the backend does")

	return cmd
}
