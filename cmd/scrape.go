package cmd

import (
	"fmt"
	"os"

	"stry/scraper"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeQueue bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>...",
	Short: "Scrape stories into the database",
	Long: `Scrape stories from fanfiction.net or archiveofourown.org into the
database. With --queue the urls are only queued for the worker of a running
server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List the scrape queue",
	RunE:  runQueue,
}

func init() {
	scrapeCmd.Flags().BoolVarP(&scrapeQueue, "queue", "q", false, "queue the urls instead of scraping them now")
	RootCmd.AddCommand(scrapeCmd)
	RootCmd.AddCommand(queueCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if scrapeQueue {
		for _, url := range args {
			site, _, err := scraper.SiteFromURL(url)
			if err != nil {
				return err
			}
			task, err := st.EnqueueTask(ctx, site, url)
			if err != nil {
				return err
			}
			successColour.Printf("queued %s as %s\n", url, task.Id)
		}
		return nil
	}

	sc, closeScraper, err := newScraper()
	if err != nil {
		return err
	}
	defer closeScraper()

	failed := 0
	for _, url := range args {
		story, err := sc.Scrape(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errorColour.Printf("failed to scrape %s: %v\n", url, err)
			failed++
			continue
		}
		id, err := st.SaveStory(ctx, story)
		if err != nil {
			return err
		}
		successColour.Printf("saved %q (%d chapters) as %s\n", story.Name, len(story.Chapters), id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stories failed", failed, len(args))
	}
	return nil
}

func runQueue(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	tasks, err := st.Tasks(cmd.Context())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Id", "Url", "State", "Story", "Error", "Updated"})
	for _, task := range tasks {
		t.AppendRow(table.Row{task.Id, task.Url, task.State, task.StoryId, task.Error, task.Updated.Local().Format("2006-01-02 15:04")})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
