package cmd

import (
	"context"
	"sync"

	"stry/build"
	"stry/server"
	"stry/store"
	"stry/worker"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reader and the REST API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8901, "listen port")
	serveCmd.Flags().String("api", "", "read stories from this remote stry API instead of the database")
	serveCmd.Flags().Bool("worker", true, "run the scrape worker")
	_ = viper.BindPFlag("host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("web.api", serveCmd.Flags().Lookup("api"))
	_ = viper.BindPFlag("worker.enabled", serveCmd.Flags().Lookup("worker"))
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	source, closeSource, err := openSource()
	if err != nil {
		return err
	}
	defer closeSource()

	var wg sync.WaitGroup
	if st, ok := source.(*store.Store); ok && cfg.Worker.Enabled {
		reset, err := st.ResetTasks(ctx)
		if err != nil {
			return err
		}
		if reset > 0 {
			logrus.WithField("tasks", reset).Info("requeued interrupted tasks")
		}

		sc, closeScraper, err := newScraper()
		if err != nil {
			return err
		}
		defer closeScraper()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.New(st, sc).Run(ctx, cfg.Worker.Schedule); err != nil {
				logrus.WithError(err).Error("worker stopped")
			}
		}()
	}
	defer wg.Wait()
	// stops the worker when the server fails to start
	defer cancel()

	srv := server.New(source, server.Options{
		Version:    build.Version(ctx, ".", cfg.Build.Version),
		Rate:       cfg.Web.Rate,
		Burst:      cfg.Web.Burst,
		CacheSize:  cfg.Web.CacheSize,
		CacheTTL:   cfg.Web.CacheTTL,
		TrustProxy: cfg.Web.TrustedProxy,
	})
	return srv.ListenAndServe(ctx, cfg.Addr())
}
