package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Browser.ActionTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "browser.action_timeout",
			Message: "action_timeout must be positive",
		})
	}

	if c.Browser.GlobalTimeout < c.Browser.ActionTimeout {
		errors = append(errors, ValidationError{
			Field:   "browser.global_timeout",
			Message: "global_timeout must not be shorter than action_timeout",
		})
	}

	if c.Browser.NavigationRate < 0 {
		errors = append(errors, ValidationError{
			Field:   "browser.navigation_rate",
			Message: "navigation_rate must be zero (unlimited) or positive",
		})
	}

	if c.Session.TokensFile == "" {
		errors = append(errors, ValidationError{
			Field:   "session.tokens_file",
			Message: "tokens file path is required",
		})
	}

	if c.Capture.MaxSlides < 1 {
		errors = append(errors, ValidationError{
			Field:   "capture.max_slides",
			Message: "max_slides must be positive",
		})
	}

	for _, name := range c.TargetNames() {
		errors = append(errors, c.Targets[name].validate("targets."+name)...)
	}

	return errors
}

func (t Target) validate(prefix string) []ValidationError {
	var errors []ValidationError

	if u, err := url.Parse(t.StartURL); err != nil || !u.IsAbs() {
		errors = append(errors, ValidationError{
			Field:   prefix + ".start_url",
			Message: "start_url must be an absolute URL",
		})
	}

	if t.BaseURL != "" {
		if _, err := url.Parse(t.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   prefix + ".base_url",
				Message: "invalid base URL",
			})
		}
	}

	if t.Lessons.Anchors == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".lessons.anchors",
			Message: "lesson anchor selector is required",
		})
	}

	if t.Courses != nil && t.Courses.Anchors == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".courses.anchors",
			Message: "course anchor selector is required when a course level is configured",
		})
	}

	switch t.Capture {
	case CaptureImages:
	case CaptureSlides:
		if t.Slides.Canvas == "" || t.Slides.Next == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".slides",
				Message: "slides capture needs both canvas and next selectors",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   prefix + ".capture",
			Message: fmt.Sprintf("unknown capture mode: %q", t.Capture),
		})
	}

	return errors
}
