package config

import "time"

const lymBaseURL = "https://lymcampus.jp"

var (
	lessonListing = Listing{
		Container: "ol.mdMN11Li li a",
		Anchors:   "ol.mdMN11Li li a",
		Timeout:   30 * time.Second,
	}

	deckRules = SlideRules{
		Canvas:          "canvas",
		Next:            ".mdMN36Next",
		DisabledMarkers: []string{"is-disabled", "disabled"},
		Hide:            []string{"header", ".help-popup"},
		NextTimeout:     5 * time.Second,
	}
)

// DefaultTargets returns the catalogs known out of the box. The course
// listing target captures inline images; the badge courses are canvas decks.
func DefaultTargets() map[string]Target {
	return map[string]Target{
		"manabu": {
			StartURL:  lymBaseURL + "/line-official-account",
			BaseURL:   lymBaseURL,
			OutputDir: "manabu",
			Courses: &Listing{
				Container: "div.mdMN08Content",
				Anchors:   "div.MdMN09Li.mdMN09Course a",
				Strip:     "LINE公式アカウント",
				Timeout:   30 * time.Second,
			},
			Lessons: Listing{
				Container: "ol.mdMN11Li",
				Anchors:   "ol.mdMN11Li li > a",
				FirstLine: true,
				Timeout:   30 * time.Second,
			},
			Content: ContentRules{
				Selectors:    []string{".mdMN12Content", ".mdMN13Content", ".mdMN31Content", "main", "article", "section"},
				Nodes:        "p, li, h2, h3",
				FallbackBody: true,
			},
			Capture: CaptureImages,
		},
		"basic": {
			StartURL:  lymBaseURL + "/line-green-badge/courses/line-official-account-basic/",
			BaseURL:   lymBaseURL,
			OutputDir: "basic",
			Lessons:   lessonListing,
			Content: ContentRules{
				Selectors: []string{".mdMN31Content"},
				Nodes:     "p, li, h2, h3",
			},
			Capture: CaptureSlides,
			Slides:  deckRules,
		},
		"advanced": {
			StartURL:  lymBaseURL + "/line-green-badge/courses/line-official-account-advanced/",
			BaseURL:   lymBaseURL,
			OutputDir: "advanced",
			Lessons:   lessonListing,
			Content: ContentRules{
				Selectors: []string{".mdMN31Content"},
				Nodes:     "p, li, h2, h3",
			},
			Capture: CaptureSlides,
			Slides:  deckRules,
		},
	}
}
