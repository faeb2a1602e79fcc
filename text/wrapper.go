package text

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stry/model"
	"stry/utils"
)

// PackStoryToText writes every chapter of story as a markdown file into
// outputPath/<name>/ and returns that directory.
func PackStoryToText(story *model.Story, chapters []model.Chapter, outputPath string) (string, error) {
	outputPath = filepath.Join(outputPath, utils.ExportName(story.Name, story.Id))
	if err := os.RemoveAll(outputPath); err != nil {
		return "", fmt.Errorf("failed to remove output directory: %w", err)
	}
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, chapter := range chapters {
		chapterPath := filepath.Join(outputPath, fmt.Sprintf("%03d-%s.md", i+1, utils.CleanDirName(chapter.Name)))
		text := strings.Builder{}
		text.WriteString("# ")
		text.WriteString(chapter.Name)
		text.WriteString("\n\n")
		text.WriteString(chapter.Raw)
		text.WriteString("\n")
		if err := os.WriteFile(chapterPath, []byte(text.String()), 0644); err != nil {
			return "", fmt.Errorf("failed to write chapter file: %w", err)
		}
	}
	return outputPath, nil
}
