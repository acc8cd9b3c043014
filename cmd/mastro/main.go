package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/mastro/cmd/mastro/cmds"
)

var rootCmd = &cobra.Command{
	Use:   "mastro",
	Short: "mastro turns a vague task into a concrete plan by asking the right questions",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()
	},
}

func initLogger() {
	logLevel := viper.GetString("log-level")
	if viper.GetBool("verbose") && logLevel != "trace" {
		logLevel = "debug"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if viper.GetString("log-format") == "json" {
		w = os.Stderr
	}
	log.Logger = log.Output(w)
}

func initViper() error {
	viper.SetEnvPrefix("mastro")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.mastro")
	if xdgConfigPath, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(xdgConfigPath + "/mastro")
	}

	err := viper.ReadInConfig()
	if err != nil {
		// a missing config file is fine, everything has defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")

	err := viper.BindPFlags(rootCmd.PersistentFlags())
	cobra.CheckErr(err)

	err = initViper()
	cobra.CheckErr(err)

	initLogger()

	cmds.RegisterCommands(rootCmd)

	err = rootCmd.Execute()
	cobra.CheckErr(err)
}
