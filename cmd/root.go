package cmd

import (
	"fmt"

	"stry/client"
	"stry/config"
	"stry/scraper"
	"stry/server"
	"stry/store"
	"stry/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

var RootCmd = &cobra.Command{
	Use:   "stry",
	Short: "A fan-fiction reading website",
	Long: `stry serves a fan-fiction reader and its REST API, scrapes stories
from fanfiction.net and archiveofourown.org and exports them as EPUB or
markdown.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./stry.yaml or $HOME/.stry/stry.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level")
	RootCmd.PersistentFlags().String("database", "stry.db", "sqlite database path")
	_ = viper.BindPFlag("logging.level", RootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("database", RootCmd.PersistentFlags().Lookup("database"))
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		return err
	}
	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded
	return utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Json)
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

// openSource reads from the remote API when web.api is set and from the
// local database otherwise.
func openSource() (server.Source, func(), error) {
	if cfg.Web.Api != "" {
		return client.New(cfg.Web.Api, cfg.Scraper.Retries), func() {}, nil
	}
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}

func newScraper() (*scraper.Scraper, func(), error) {
	opts := []scraper.Option{scraper.WithDelay(cfg.Scraper.Delay.Min, cfg.Scraper.Delay.Max)}
	if cfg.Scraper.Browser {
		fetcher, err := scraper.NewBrowserFetcher(scraper.Headers)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		return scraper.New(fetcher, opts...), func() { fetcher.Close() }, nil
	}
	fetcher := scraper.NewHTTPFetcher(utils.NewRestyClient(cfg.Scraper.Retries), scraper.Headers)
	return scraper.New(fetcher, opts...), func() {}, nil
}
