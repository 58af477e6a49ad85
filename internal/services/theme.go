// Package services holds application services backed by the local store
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/qualitylink/qldash/internal/db/repos"
)

// ThemeKey is the preference key the selected theme is stored under
const ThemeKey = "app-theme"

// Theme names
const (
	ThemeSkillData   = "skilldata"
	ThemeQualityLink = "qualitylink"

	DefaultTheme = ThemeSkillData
)

// ErrInvalidTheme is returned when setting a theme that does not exist
var ErrInvalidTheme = errors.New("invalid theme")

// Themes lists the selectable themes
var Themes = []string{ThemeSkillData, ThemeQualityLink}

// ValidTheme reports whether name is a known theme
func ValidTheme(name string) bool {
	return name == ThemeSkillData || name == ThemeQualityLink
}

// Theme persists the user's theme selection
type Theme struct {
	repo *repos.PreferenceRepository
}

// NewTheme creates a new theme service
func NewTheme(repo *repos.PreferenceRepository) *Theme {
	return &Theme{repo: repo}
}

// Get returns the stored theme, or the default when none or an unknown one is stored
func (t *Theme) Get(ctx context.Context) (string, error) {
	pref, err := t.repo.Get(ctx, ThemeKey)
	if errors.Is(err, repos.ErrPreferenceNotFound) {
		return DefaultTheme, nil
	}
	if err != nil {
		return DefaultTheme, fmt.Errorf("failed to read theme: %w", err)
	}
	if !ValidTheme(pref.Value) {
		return DefaultTheme, nil
	}
	return pref.Value, nil
}

// Set stores the given theme
func (t *Theme) Set(ctx context.Context, name string) error {
	if !ValidTheme(name) {
		return fmt.Errorf("%w: %q (want one of %v)", ErrInvalidTheme, name, Themes)
	}
	if err := t.repo.Set(ctx, ThemeKey, name); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

// Toggle switches to the other theme and returns it
func (t *Theme) Toggle(ctx context.Context) (string, error) {
	current, err := t.Get(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeQualityLink
	if current == ThemeQualityLink {
		next = ThemeSkillData
	}
	if err := t.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
