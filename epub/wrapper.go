package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stry/markdown"
	"stry/model"
	"stry/template"
	"stry/utils"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PackStoryToEpub writes story into outputPath/<name>/ and zips that
// directory into outputPath/<name>.epub, whose path is returned.
func PackStoryToEpub(ctx context.Context, story *model.Story, chapters []model.Chapter, outputPath string) (string, error) {
	outputPath = filepath.Join(outputPath, utils.ExportName(story.Name, story.Id))
	if err := os.RemoveAll(outputPath); err != nil {
		return "", fmt.Errorf("failed to remove output directory: %w", err)
	}
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// OEBPS/Text/title.xhtml, contents.xhtml and chapter-%03d.xhtml
	if err := writeComponent(ctx, filepath.Join(outputPath, "OEBPS/Text/title.xhtml"), template.ContentXHTML(story.Name, template.TitlePage(story))); err != nil {
		return "", fmt.Errorf("failed to write title page: %w", err)
	}

	for i, chapter := range chapters {
		logrus.WithFields(logrus.Fields{"story": story.Id, "chapter": i + 1}).Debug("packing chapter")
		chapterPath := filepath.Join(outputPath, "OEBPS/Text", template.ChapterFile(i))
		if err := writeComponent(ctx, chapterPath, template.ContentXHTML(chapter.Name, templ.Raw(markdown.XHTML(chapter.Raw)))); err != nil {
			return "", fmt.Errorf("failed to write chapter: %w", err)
		}
	}

	if err := writeComponent(ctx, filepath.Join(outputPath, "OEBPS/Text/contents.xhtml"), template.ContentXHTML("Contents", template.ContentsPage(chapters))); err != nil {
		return "", fmt.Errorf("failed to write contents: %w", err)
	}

	if err := writeComponent(ctx, filepath.Join(outputPath, "META-INF/container.xml"), template.ContainerXML()); err != nil {
		return "", fmt.Errorf("failed to write container: %w", err)
	}

	u := uuid.New()
	if err := CreateContentOPF(ctx, outputPath, u.String(), story, chapters); err != nil {
		return "", fmt.Errorf("failed to create content OPF: %w", err)
	}
	if err := CreateTocNCX(ctx, outputPath, u.String(), story, chapters); err != nil {
		return "", fmt.Errorf("failed to create toc NCX: %w", err)
	}

	if err := os.WriteFile(filepath.Join(outputPath, "style.css"), []byte(template.StyleCSS), 0644); err != nil {
		return "", fmt.Errorf("failed to write CSS: %w", err)
	}

	savePath, err := PackEpub(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to pack epub: %w", err)
	}
	return savePath, nil
}

func writeComponent(ctx context.Context, path string, c templ.Component) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return c.Render(ctx, file)
}

func CreateContentOPF(ctx context.Context, outputPath string, uid string, story *model.Story, chapters []model.Chapter) error {
	creators := make([]model.DCCreator, 0, len(story.Authors))
	for _, author := range story.Authors {
		creators = append(creators, model.DCCreator{Value: author.Name, Role: "aut"})
	}
	subjects := make([]model.DCText, 0, len(story.Origins)+len(story.Tags))
	for _, origin := range story.Origins {
		subjects = append(subjects, model.DCText{Value: origin.Name})
	}
	for _, tag := range story.Tags {
		subjects = append(subjects, model.DCText{Value: tag.Name})
	}

	metadata := &model.Package{
		Titles: []model.DCText{{Value: story.Name}},
		Identifiers: []model.DCIdentifier{{
			Value: fmt.Sprintf("urn:uuid:%s", uid),
			ID:    "book-id",
		}},
		Languages:    []model.DCText{{Value: "en"}},
		Descriptions: []model.DCText{{Value: story.Summary}},
		Creators:     creators,
		Subjects:     subjects,
		Dates: []model.DCDate{
			{Value: story.Created.Format(time.DateOnly), Event: "publication"},
			{Value: story.Updated.Format(time.DateOnly), Event: "modification"},
		},
		Metas: []model.PackageMeta{
			{Property: "dcterms:modified", Value: time.Now().UTC().Format("2006-01-02T15:04:05Z")},
			{Name: "stry:rating", Content: string(story.Square.Rating)},
			{Name: "stry:state", Content: string(story.Square.State)},
		},
	}

	manifest := &model.Manifest{Items: []model.ManifestItem{
		{ID: "title.xhtml", Link: "OEBPS/Text/title.xhtml", Media: "application/xhtml+xml"},
		{ID: "contents.xhtml", Link: "OEBPS/Text/contents.xhtml", Media: "application/xhtml+xml", Properties: "nav"},
	}}
	for i := range chapters {
		manifest.Items = append(manifest.Items, model.ManifestItem{
			ID:    template.ChapterFile(i),
			Link:  "OEBPS/Text/" + template.ChapterFile(i),
			Media: "application/xhtml+xml",
		})
	}
	manifest.Items = append(manifest.Items,
		model.ManifestItem{ID: "ncx", Link: "toc.ncx", Media: "application/x-dtbncx+xml"},
		model.ManifestItem{ID: "style", Link: "style.css", Media: "text/css"},
	)

	spine := &model.Spine{Toc: "ncx"}
	for _, item := range manifest.Items {
		if filepath.Ext(item.Link) == ".xhtml" {
			spine.Items = append(spine.Items, model.SpineItem{IDref: item.ID})
		}
	}

	return writeComponent(ctx, filepath.Join(outputPath, "content.opf"), template.ContentOPF("book-id", metadata, manifest, spine))
}

func CreateTocNCX(ctx context.Context, outputPath string, uid string, story *model.Story, chapters []model.Chapter) error {
	head := &model.TocHead{Meta: []model.TocHeadMeta{
		{Name: "dtb:uid", Content: fmt.Sprintf("urn:uuid:%s", uid)},
		{Name: "dtb:depth", Content: "1"},
	}}
	navMap := &model.NavMap{}
	for i, chapter := range chapters {
		navMap.Points = append(navMap.Points, &model.NavPoint{
			Id:        fmt.Sprintf("chapter-%03d", i+1),
			PlayOrder: i + 1,
			Label:     chapter.Name,
			Content:   model.NavPointContent{Src: "OEBPS/Text/" + template.ChapterFile(i)},
		})
	}
	return writeComponent(ctx, filepath.Join(outputPath, "toc.ncx"), template.TocNCX(story.Name, head, navMap))
}

// PackEpub zips dirPath into dirPath.epub with the mimetype entry stored
// first.
func PackEpub(dirPath string) (string, error) {
	savePath := strings.TrimSuffix(dirPath, string(filepath.Separator)) + ".epub"
	zipFile, err := os.Create(savePath)
	if err != nil {
		return "", err
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	if err := addStringToZip(zipWriter, "mimetype", "application/epub+zip", zip.Store); err != nil {
		return "", err
	}
	if err := addDirContentToZip(zipWriter, dirPath, zip.Deflate); err != nil {
		return "", err
	}
	if err := zipWriter.Close(); err != nil {
		return "", err
	}
	return savePath, nil
}

func addStringToZip(zipWriter *zip.Writer, relPath, content string, method uint16) error {
	header := &zip.FileHeader{
		Name:   relPath,
		Method: method,
	}
	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = writer.Write([]byte(content))
	return err
}

func addDirContentToZip(zipWriter *zip.Writer, dirPath string, method uint16) error {
	return filepath.Walk(dirPath, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dirPath, filePath)
		if err != nil {
			return err
		}

		file, err := os.Open(filePath)
		if err != nil {
			return err
		}
		defer file.Close()

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)
		header.Method = method

		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			return err
		}

		_, err = io.Copy(writer, file)
		return err
	})
}
