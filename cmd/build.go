package cmd

import (
	"stry/build"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Bundle the reader shell into a single html file",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().Bool("debug", false, "enable debug output in the bundle")
	buildCmd.Flags().StringP("output", "o", "dist/index.html", "output file")
	_ = viper.BindPFlag("build.debug", buildCmd.Flags().Lookup("debug"))
	_ = viper.BindPFlag("build.output", buildCmd.Flags().Lookup("output"))
	RootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	version, err := build.Bundle(cmd.Context(), build.Options{
		Dir:     ".",
		Package: cfg.Build.Version,
		Style:   cfg.Build.Style,
		Script:  cfg.Build.Script,
		Output:  cfg.Build.Output,
		Debug:   cfg.Build.Debug,
	})
	if err != nil {
		return err
	}
	successColour.Printf("built %s (%s)\n", cfg.Build.Output, version)
	return nil
}
