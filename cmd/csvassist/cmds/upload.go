package cmds

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/csvassist/pkg/csvfile"
	"github.com/go-go-golems/csvassist/pkg/render"
	"github.com/go-go-golems/csvassist/pkg/session"
)

func NewUploadCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload [path]",
		Short: "Upload a CSV file and print the insights",
		Long:  "Upload a CSV file for analysis. Without a path, and on a terminal, you are asked for one.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else if interactive(cmd) {
				p, err := askForPath()
				if err != nil {
					return err
				}
				path = p
			}

			c, err := app.NewClient()
			if err != nil {
				return err
			}
			out := render.NewWriterRenderer(cmd.OutOrStdout())

			file, closeFn, err := csvfile.Open(path)
			if err != nil {
				if errors.Is(err, csvfile.ErrNotCSV) {
					out.SetUploadStatus(csvfile.NotCSVMessage)
					return nil
				}
				return err
			}
			defer func() {
				if err := closeFn(); err != nil {
					log.Debug().Err(err).Str("path", path).Msg("failed to close uploaded file")
				}
			}()

			s := session.New(c, out, session.WithGreeting(app.Settings.Greeting))
			s.Start()
			s.SubmitFile(cmd.Context(), file)
			return nil
		},
	}

	return cmd
}

func askForPath() (string, error) {
	var path string
	err := huh.NewInput().
		Title("CSV file to upload").
		Description("Leave empty to cancel.").
		Placeholder("data/sales.csv").
		Value(&path).
		Validate(func(s string) error {
			s = strings.TrimSpace(s)
			if s != "" && !csvfile.IsCSV(s) {
				return errors.New(csvfile.NotCSVMessage)
			}
			return nil
		}).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", errors.Wrap(err, "failed to read file path")
	}
	return strings.TrimSpace(path), nil
}

func interactive(cmd *cobra.Command) bool {
	_, inTTY := terminal(cmd.InOrStdin())
	_, outTTY := terminal(cmd.OutOrStdout())
	return inTTY && outTTY
}
