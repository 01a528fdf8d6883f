package main

import (
	"context"
	"os"
	"os/signal"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/csvassist/cmd/csvassist/cmds"
	"github.com/go-go-golems/csvassist/pkg/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cmds.NewApp(viper.GetViper())
	rootCmd, err := cmds.NewRootCommand(app, version)
	cobra.CheckErr(err)

	err = clay.InitViper(config.AppName, rootCmd)
	cobra.CheckErr(err)
	err = config.Register(viper.GetViper())
	cobra.CheckErr(err)
	err = clay.InitLogger()
	cobra.CheckErr(err)

	err = rootCmd.ExecuteContext(ctx)
	cobra.CheckErr(err)
}
