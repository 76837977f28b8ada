package domain

import (
	"fmt"
	"regexp"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	DefaultAccentColor = "#ff4f70"
)

// Preferences est la config d'affichage d'UNE requête.
// Elle est lue par l'adapter HTTP et passée explicitement, jamais globale.
type Preferences struct {
	Theme       string `json:"theme"`
	AccentColor string `json:"accent_color"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, AccentColor: DefaultAccentColor}
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (p Preferences) Validate() error {
	if p.Theme != ThemeLight && p.Theme != ThemeDark {
		return fmt.Errorf("%w: unknown theme %q", ErrValidation, p.Theme)
	}
	if !hexColor.MatchString(p.AccentColor) {
		return fmt.Errorf("%w: accent color must be #rrggbb", ErrValidation)
	}
	return nil
}
