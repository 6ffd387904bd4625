package app

import "math/rand"

// Themes is the round prompt catalog. Players encode their secret number
// as a clue on the current theme's scale.
var Themes = []string{
	"一番人気な映画",
	"もらって嬉しいプレゼント",
	"最強の動物",
	"住みたい街",
	"あったら嬉しいドラえもんの道具",
}

// RandomTheme returns a random prompt from the catalog
func RandomTheme() string {
	return Themes[rand.Intn(len(Themes))]
}

// RandomThemeExcluding returns a random prompt different from current, so
// the same theme is never shown twice in a row. With a single-entry
// catalog the exclusion is skipped so selection terminates.
func RandomThemeExcluding(current string) string {
	if len(Themes) <= 1 {
		return RandomTheme()
	}

	for {
		theme := RandomTheme()
		if theme != current {
			return theme
		}
	}
}
