package store

import (
	"slices"
	"strconv"
	"strings"
)

// SortKey is a discover sort order. Unknown keys are forwarded to the server as-is.
type SortKey string

const (
	SortPopularityDesc  SortKey = "popularity.desc"
	SortPopularityAsc   SortKey = "popularity.asc"
	SortVoteAverageDesc SortKey = "vote_average.desc"
	SortVoteAverageAsc  SortKey = "vote_average.asc"
	SortReleaseDateDesc SortKey = "release_date.desc"
	SortReleaseDateAsc  SortKey = "release_date.asc"
	SortTitleAsc        SortKey = "title.asc"
	SortTitleDesc       SortKey = "title.desc"

	DefaultSort = SortPopularityDesc
)

// SortOption pairs a sort key with its display label.
type SortOption struct {
	Key   SortKey
	Label string
}

// SortOptions lists the supported sort keys in display order.
var SortOptions = []SortOption{
	{SortPopularityDesc, "Most Popular"},
	{SortPopularityAsc, "Least Popular"},
	{SortVoteAverageDesc, "Highest Rated"},
	{SortVoteAverageAsc, "Lowest Rated"},
	{SortReleaseDateDesc, "Newest First"},
	{SortReleaseDateAsc, "Oldest First"},
	{SortTitleAsc, "Title A-Z"},
	{SortTitleDesc, "Title Z-A"},
}

// Valid reports whether k is one of SortOptions.
func (k SortKey) Valid() bool {
	for _, o := range SortOptions {
		if o.Key == k {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw key when unknown.
func (k SortKey) Label() string {
	for _, o := range SortOptions {
		if o.Key == k {
			return o.Label
		}
	}
	return string(k)
}

// FilterState is the user's current browse criteria.
type FilterState struct {
	SelectedGenres []int   `json:"selectedGenres"`
	SortBy         SortKey `json:"sortBy"`
	MinRating      float64 `json:"minRating"`
	ReleaseYear    *int    `json:"releaseYear,omitempty"`
	Query          string  `json:"query"`
}

// DefaultFilters returns the session start state.
func DefaultFilters() FilterState {
	return FilterState{
		SelectedGenres: []int{},
		SortBy:         DefaultSort,
	}
}

// HasFilters reports whether any filter differs from its default. The query is not a filter.
func (f FilterState) HasFilters() bool {
	return len(f.SelectedGenres) > 0 ||
		f.ReleaseYear != nil ||
		f.MinRating > 0 ||
		f.SortBy != DefaultSort
}

// TrimmedQuery returns the query without surrounding whitespace.
func (f FilterState) TrimmedQuery() string {
	return strings.TrimSpace(f.Query)
}

// Clone returns a copy that shares no memory with f.
func (f FilterState) Clone() FilterState {
	out := f
	out.SelectedGenres = slices.Clone(f.SelectedGenres)
	if out.SelectedGenres == nil {
		out.SelectedGenres = []int{}
	}
	if f.ReleaseYear != nil {
		y := *f.ReleaseYear
		out.ReleaseYear = &y
	}
	return out
}

// GenresParam joins the selected genre ids with commas, "" when none are selected.
func (f FilterState) GenresParam() string {
	parts := make([]string, len(f.SelectedGenres))
	for i, id := range f.SelectedGenres {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// ReleaseDateGte returns the lower release date bound for the release year, "" when unset.
func (f FilterState) ReleaseDateGte() string {
	if f.ReleaseYear == nil {
		return ""
	}
	return strconv.Itoa(*f.ReleaseYear) + "-01-01"
}

// uniqueGenres drops duplicates while keeping first-seen order.
func uniqueGenres(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
