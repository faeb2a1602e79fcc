package cmd

import (
	"stry/watcher"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a command whenever watched files change",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("command", "", "shell command to run")
	watchCmd.Flags().StringSlice("path", nil, "paths to watch")
	_ = viper.BindPFlag("watch.command", watchCmd.Flags().Lookup("command"))
	_ = viper.BindPFlag("watch.paths", watchCmd.Flags().Lookup("path"))
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	w, err := watcher.New(watcher.Options{
		Paths:    cfg.Watch.Paths,
		Ignore:   cfg.Watch.Ignore,
		Command:  cfg.Watch.Command,
		Debounce: cfg.Watch.Debounce,
	})
	if err != nil {
		return err
	}
	infoColour.Printf("watching %v, running %q\n", cfg.Watch.Paths, cfg.Watch.Command)
	return w.Run(cmd.Context())
}
