package store

import (
	"math"
	"strconv"
	"strings"

	"github.com/slipstream/marquee/internal/tmdb"
)

// GenreNames maps ids to names, skipping ids not in all.
func GenreNames(ids []int, all []tmdb.Genre) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, g := range all {
			if g.ID == id {
				names = append(names, g.Name)
				break
			}
		}
	}
	return names
}

// FormatGenres joins genre names with ", ".
func FormatGenres(ids []int, all []tmdb.Genre) string {
	return strings.Join(GenreNames(ids, all), ", ")
}

// FormatRating rounds a rating to one decimal place.
func FormatRating(rating float64) string {
	return strconv.FormatFloat(math.Round(rating*10)/10, 'f', -1, 64)
}

// RatingColor returns the badge color for a rating.
func RatingColor(rating float64) string {
	switch {
	case rating >= 8:
		return "#4caf50"
	case rating >= 6:
		return "#ff9800"
	case rating >= 4:
		return "#f44336"
	default:
		return "#9e9e9e"
	}
}

// Truncate shortens text to max runes and appends "...".
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return strings.TrimSpace(string(r[:max])) + "..."
}
