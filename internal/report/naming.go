package report

import (
	"fmt"
	"path/filepath"
	"strings"
)

var filenameReplacer = strings.NewReplacer(
	`\`, "_", "/", "_", "*", "_", "?", "_", ":", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeFilename replaces characters that are invalid in file names on
// common filesystems with underscores.
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

// LessonFileName is NN_<title>.md; the index keeps equal titles apart.
func LessonFileName(index int, title string) string {
	return fmt.Sprintf("%02d_%s.md", index, SanitizeFilename(title))
}

func CourseDirName(index int, name string) string {
	return fmt.Sprintf("%02d_%s", index, SanitizeFilename(name))
}

func ImageFileName(courseDir string, lessonIndex, imageIndex int) string {
	return fmt.Sprintf("%s_lesson_%02d_img_%d.png", courseDir, lessonIndex, imageIndex)
}

func SlideFileName(lessonFile string, slide int) string {
	return fmt.Sprintf("%s_slide_%d.png", strings.TrimSuffix(lessonFile, ".md"), slide)
}

// RelativeRef returns target relative to the directory holding doc, in
// forward-slash form for Markdown links.
func RelativeRef(doc, target string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(doc), target)
	if err != nil {
		return "", fmt.Errorf("relative image path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}
