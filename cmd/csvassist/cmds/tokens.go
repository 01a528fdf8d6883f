package cmds

import (
	"context"
	"fmt"
	"io"

	"github.com/go-go-golems/glazed/pkg/cli"
	glazed_cmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/csvassist/pkg/tokens"
)

func NewTokensCommand(app *App) (*cobra.Command, error) {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Token estimates as shown in the chat status line",
	}

	countCmd, err := NewCountCommand(app)
	if err != nil {
		return nil, err
	}
	command, err := cli.BuildCobraCommand(countCmd)
	if err != nil {
		return nil, err
	}
	tokensCmd.AddCommand(command)

	return tokensCmd, nil
}

type CountCommand struct {
	*glazed_cmds.CommandDescription
	app *App
}

type CountSettings struct {
	Model string `glazed:"model"`
	Input string `glazed:"input"`
}

var _ glazed_cmds.WriterCommand = (*CountCommand)(nil)

func NewCountCommand(app *App) (*CountCommand, error) {
	return &CountCommand{
		CommandDescription: glazed_cmds.NewCommandDescription(
			"count",
			glazed_cmds.WithShort("Count the tokens of files, or of stdin with -"),
			glazed_cmds.WithFlags(
				fields.New(
					"model",
					fields.TypeString,
					fields.WithHelp("Model whose encoding is used (default token-model from the config)"),
				),
			),
			glazed_cmds.WithArguments(
				fields.New(
					"input",
					fields.TypeStringFromFiles,
					fields.WithHelp("Input files, - reads stdin"),
				),
			),
		),
		app: app,
	}, nil
}

func (cc *CountCommand) RunIntoWriter(
	ctx context.Context,
	parsedValues *values.Values,
	w io.Writer,
) error {
	s := &CountSettings{}
	err := parsedValues.DecodeSectionInto(values.DefaultSlug, s)
	if err != nil {
		return err
	}

	model := s.Model
	if model == "" {
		model = cc.app.Settings.TokenModel
	}
	return writeCount(w, tokens.NewCounter(model), s.Input)
}

func writeCount(w io.Writer, counter *tokens.Counter, input string) error {
	_, err := fmt.Fprintf(w, "%d\n", counter.Count(input))
	if err != nil {
		return errors.Wrap(err, "error writing to output")
	}
	return nil
}
