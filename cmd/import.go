package cmd

import (
	"stry/importer"
	"stry/scraper"
	"stry/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import stories from a list file",
}

var importRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Download the stories of the import list into the import directory",
	RunE:  runImport,
}

var importLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Save the downloaded stories of the import directory into the database",
	RunE:  runImportLoad,
}

func init() {
	importCmd.PersistentFlags().StringP("dir", "d", "import", "import directory")
	importRunCmd.Flags().StringP("list", "l", "stories.yaml", "import list file")
	_ = viper.BindPFlag("importer.dir", importCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("importer.list", importRunCmd.Flags().Lookup("list"))

	importCmd.AddCommand(importRunCmd)
	importCmd.AddCommand(importLoadCmd)
	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	entries, err := importer.ReadList(cfg.Importer.List)
	if err != nil {
		return err
	}
	infoColour.Printf("importing %d stories into %s\n", len(entries), cfg.Importer.Dir)

	fetcher := scraper.NewHTTPFetcher(utils.NewRestyClient(cfg.Scraper.Retries), importer.Headers)
	imp := importer.New(fetcher, importer.Options{
		Dir:      cfg.Importer.Dir,
		MinDelay: cfg.Importer.Delay.Min,
		MaxDelay: cfg.Importer.Delay.Max,
	})
	if err := imp.Run(cmd.Context(), entries); err != nil {
		return err
	}
	successColour.Println("import finished")
	return nil
}

func runImportLoad(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := importer.Load(cmd.Context(), cfg.Importer.Dir, st)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		warningColour.Printf("no story files in %s\n", cfg.Importer.Dir)
		return nil
	}
	successColour.Printf("loaded %d stories\n", len(ids))
	return nil
}
