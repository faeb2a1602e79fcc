package cmd

import (
	"os"
	"strings"

	"stry/model"
	"stry/pagination"
	"stry/search"
	"stry/template"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	storiesSearch string
	storiesRemote string
)

var storiesCmd = &cobra.Command{
	Use:   "stories [page]",
	Short: "List stories from the database or a remote API",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStories,
}

func init() {
	storiesCmd.Flags().StringVarP(&storiesSearch, "search", "s", "", "search terms, e.g. \"drama, -angst, rating:t\"")
	storiesCmd.Flags().StringVar(&storiesRemote, "remote", "", "base url of a remote stry API")
	RootCmd.AddCommand(storiesCmd)
}

func runStories(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	n := 1
	if len(args) == 1 {
		n = pagination.Page(args[0])
	}

	if storiesRemote != "" {
		cfg.Web.Api = storiesRemote
	}
	source, closeSource, err := openSource()
	if err != nil {
		return err
	}
	defer closeSource()

	var page *model.StoryPage
	if storiesSearch != "" {
		q, err := search.Parse(storiesSearch)
		if err != nil {
			return err
		}
		page, err = source.Search(ctx, q, n)
		if err != nil {
			return err
		}
	} else {
		page, err = source.Stories(ctx, n)
		if err != nil {
			return err
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Id", "Name", "Authors", "Rating", "State", "Chapters", "Words", "Updated"})
	for _, story := range page.Stories {
		authors := make([]string, 0, len(story.Authors))
		for _, author := range story.Authors {
			authors = append(authors, author.Name)
		}
		t.AppendRow(table.Row{
			story.Id,
			story.Name,
			strings.Join(authors, ", "),
			story.Square.Rating,
			story.Square.State,
			template.Readable(story.Chapters),
			template.Readable(story.Words),
			template.Date(story.Updated),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "page", titleColour.Sprintf("%d / %d", n, page.Pages)})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
