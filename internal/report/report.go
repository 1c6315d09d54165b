// Package report renders lesson documents as Markdown files.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	HeadingSlide = "Slide"
	HeadingImage = "Image"

	mainHeading   = "## Main Content\n\n"
	imagesHeading = "## Images\n\n"
)

var (
	ErrMalformed = errors.New("malformed lesson document")

	ocrHeadingRe = regexp.MustCompile(`\n\n## (\S+) OCR Text\n\n`)
	imageRefRe   = regexp.MustCompile(`^!\[img\]\((.*)\)$`)
)

type Transcript struct {
	Heading string
	Text    string
}

type LessonDocument struct {
	Title     string
	SourceURL string
	Body      string
	// ImageRefs are paths relative to the document's directory.
	ImageRefs []string
	// OCRHeading is HeadingSlide or HeadingImage.
	OCRHeading  string
	Transcripts []Transcript
}

func Render(doc LessonDocument) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "URL: %s\n\n", doc.SourceURL)
	b.WriteString(mainHeading)
	b.WriteString(doc.Body + "\n\n")

	if len(doc.ImageRefs) > 0 {
		refs := make([]string, len(doc.ImageRefs))
		for i, ref := range doc.ImageRefs {
			refs[i] = fmt.Sprintf("![img](%s)", ref)
		}
		b.WriteString(imagesHeading)
		b.WriteString(strings.Join(refs, "\n\n") + "\n\n")
	}

	if len(doc.Transcripts) > 0 {
		heading := doc.OCRHeading
		if heading == "" {
			heading = HeadingImage
		}
		parts := make([]string, len(doc.Transcripts))
		for i, t := range doc.Transcripts {
			parts[i] = fmt.Sprintf("### %s\n\n%s", t.Heading, t.Text)
		}
		fmt.Fprintf(&b, "## %s OCR Text\n\n", heading)
		b.WriteString(strings.Join(parts, "\n\n"))
	}
	return b.Bytes()
}

// Write renders doc to path, creating parent directories and replacing any
// existing file.
func Write(path string, doc LessonDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create lesson dir: %w", err)
	}
	if err := os.WriteFile(path, Render(doc), 0o644); err != nil {
		return fmt.Errorf("write lesson: %w", err)
	}
	return nil
}

func Read(path string) (LessonDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LessonDocument{}, fmt.Errorf("read lesson: %w", err)
	}
	return Parse(string(data))
}

// Parse is the inverse of Render.
func Parse(s string) (LessonDocument, error) {
	var doc LessonDocument

	title, rest, ok := cutLine(s, "# ")
	if !ok {
		return doc, fmt.Errorf("%w: missing title", ErrMalformed)
	}
	doc.Title = title

	url, rest, ok := cutLine(rest, "URL: ")
	if !ok {
		return doc, fmt.Errorf("%w: missing URL line", ErrMalformed)
	}
	doc.SourceURL = url

	rest, ok = strings.CutPrefix(rest, mainHeading)
	if !ok {
		return doc, fmt.Errorf("%w: missing main content section", ErrMalformed)
	}

	// The images and OCR sections always follow the body, and a body may
	// quote either heading, so both are searched for from the end.
	locs := ocrHeadingRe.FindAllStringSubmatchIndex(rest, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		transcripts, err := parseTranscripts(rest[loc[1]:])
		if err != nil {
			continue
		}
		doc.OCRHeading = rest[loc[2]:loc[3]]
		doc.Transcripts = transcripts
		rest = rest[:loc[0]+2]
		break
	}

	doc.Body = strings.TrimSuffix(rest, "\n\n")
	if i := strings.LastIndex(rest, "\n\n"+imagesHeading); i >= 0 {
		if refs, ok := parseImageRefs(rest[i+2+len(imagesHeading):]); ok {
			doc.Body = rest[:i]
			doc.ImageRefs = refs
		}
	}
	return doc, nil
}

func parseImageRefs(s string) ([]string, bool) {
	var refs []string
	for _, ref := range strings.Split(strings.TrimSuffix(s, "\n\n"), "\n\n") {
		m := imageRefRe.FindStringSubmatch(ref)
		if m == nil {
			return nil, false
		}
		refs = append(refs, m[1])
	}
	return refs, true
}

func parseTranscripts(s string) ([]Transcript, error) {
	s, ok := strings.CutPrefix(s, "### ")
	if !ok {
		return nil, fmt.Errorf("%w: OCR section without entries", ErrMalformed)
	}
	var out []Transcript
	for _, chunk := range strings.Split(s, "\n\n### ") {
		heading, text, _ := strings.Cut(chunk, "\n\n")
		out = append(out, Transcript{Heading: heading, Text: text})
	}
	return out, nil
}

// cutLine expects s to start with prefix and returns the rest of that line
// plus what follows its blank-line terminator.
func cutLine(s, prefix string) (string, string, bool) {
	s, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return "", "", false
	}
	line, rest, ok := strings.Cut(s, "\n\n")
	if !ok || strings.Contains(line, "\n") {
		return "", "", false
	}
	return line, rest, true
}
