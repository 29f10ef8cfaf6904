package store

import "fmt"

// ModeKind identifies which listing request is active.
type ModeKind int

const (
	ModePopular ModeKind = iota
	ModeSearching
	ModeFiltering
)

func (k ModeKind) String() string {
	switch k {
	case ModeSearching:
		return "searching"
	case ModeFiltering:
		return "filtering"
	default:
		return "popular"
	}
}

// Mode is the active listing mode. Query is set only when Kind is ModeSearching.
type Mode struct {
	Kind  ModeKind
	Query string
}

// ModeOf derives the listing mode from filter state. A non-blank query wins over filters.
func ModeOf(f FilterState) Mode {
	if q := f.TrimmedQuery(); q != "" {
		return Mode{Kind: ModeSearching, Query: q}
	}
	if f.HasFilters() {
		return Mode{Kind: ModeFiltering}
	}
	return Mode{Kind: ModePopular}
}

// Title is the listing heading for the mode.
func (m Mode) Title() string {
	switch m.Kind {
	case ModeSearching:
		return fmt.Sprintf("Search Results for %q", m.Query)
	case ModeFiltering:
		return "Filtered Movies"
	default:
		return "Popular Movies"
	}
}

// Subtitle is the listing summary line for the mode given the total result count.
func (m Mode) Subtitle(totalResults int) string {
	switch m.Kind {
	case ModeSearching:
		return fmt.Sprintf("Found %d movies", totalResults)
	case ModeFiltering:
		return fmt.Sprintf("Found %d movies with applied filters", totalResults)
	default:
		return "Discover the most popular movies right now"
	}
}

// Request is the server request for the active mode and page.
// Optional string fields are empty when they must not be sent.
type Request struct {
	Mode           Mode
	Page           int
	Query          string
	WithGenres     string
	SortBy         string
	ReleaseDateGte string
}

// RequestFor builds the request the given state and page call for.
func RequestFor(f FilterState, page int) Request {
	if page < 1 {
		page = 1
	}
	mode := ModeOf(f)
	req := Request{Mode: mode, Page: page}
	switch mode.Kind {
	case ModeSearching:
		req.Query = mode.Query
	case ModeFiltering:
		req.WithGenres = f.GenresParam()
		req.SortBy = string(f.SortBy)
		req.ReleaseDateGte = f.ReleaseDateGte()
	}
	return req
}
