package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"stry/epub"
	"stry/model"
	"stry/text"
	"stry/utils"

	"github.com/spf13/cobra"
)

type packArgs struct {
	Format     string
	OutputPath string
}

var pArgs packArgs

var packCmd = &cobra.Command{
	Use:   "pack <story-id>",
	Short: "Export a stored story as an epub or markdown files",
	Args:  cobra.ExactArgs(1),
	RunE:  runPack,
}

func init() {
	packCmd.Flags().StringVarP(&pArgs.Format, "format", "f", "epub", "output format: epub, text or json")
	packCmd.Flags().StringVarP(&pArgs.OutputPath, "output-path", "o", "./stories", "output path")
	RootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	story, err := st.Story(ctx, args[0])
	if err != nil {
		return err
	}
	chapters, err := st.Chapters(ctx, story.Id)
	if err != nil {
		return err
	}

	var out string
	switch pArgs.Format {
	case "epub":
		out, err = epub.PackStoryToEpub(ctx, story, chapters, pArgs.OutputPath)
	case "text":
		out, err = text.PackStoryToText(story, chapters, pArgs.OutputPath)
	case "json":
		out, err = packJSON(story, chapters, pArgs.OutputPath)
	default:
		return fmt.Errorf("unknown format %q", pArgs.Format)
	}
	if err != nil {
		return fmt.Errorf("failed to pack story: %w", err)
	}
	successColour.Printf("packed %q to %s\n", story.Name, out)
	return nil
}

func packJSON(story *model.Story, chapters []model.Chapter, outputPath string) (string, error) {
	data, err := json.MarshalIndent(struct {
		Story    *model.Story    `json:"story"`
		Chapters []model.Chapter `json:"chapters"`
	}{story, chapters}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	out := filepath.Join(outputPath, fmt.Sprintf("%s.json", utils.ExportName(story.Name, story.Id)))
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}
