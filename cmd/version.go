package cmd

import (
	"stry/build"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		titleColour.Print("stry ")
		infoColour.Println(build.Version(cmd.Context(), ".", cfg.Build.Version))
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
