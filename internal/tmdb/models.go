package tmdb

// PagedMovies is a page of movie results as returned by list, search and discover endpoints.
type PagedMovies struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MovieResult is a movie summary from list and search results.
type MovieResult struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	Adult            bool    `json:"adult"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Video            bool    `json:"video"`
}

// MovieDetails is the full record for a single movie.
type MovieDetails struct {
	ID                  int                 `json:"id"`
	Title               string              `json:"title"`
	OriginalTitle       string              `json:"original_title"`
	Overview            string              `json:"overview"`
	PosterPath          *string             `json:"poster_path"`
	BackdropPath        *string             `json:"backdrop_path"`
	ReleaseDate         string              `json:"release_date"`
	Adult               bool                `json:"adult"`
	OriginalLanguage    string              `json:"original_language"`
	Popularity          float64             `json:"popularity"`
	VoteAverage         float64             `json:"vote_average"`
	VoteCount           int                 `json:"vote_count"`
	Video               bool                `json:"video"`
	BelongsToCollection *Collection         `json:"belongs_to_collection"`
	Budget              int64               `json:"budget"`
	Revenue             int64               `json:"revenue"`
	Runtime             *int                `json:"runtime"`
	Genres              []Genre             `json:"genres"`
	Homepage            string              `json:"homepage"`
	ImdbID              *string             `json:"imdb_id"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	SpokenLanguages     []SpokenLanguage    `json:"spoken_languages"`
	Status              string              `json:"status"`
	Tagline             string              `json:"tagline"`
}

// Summary returns the list-level view of a detailed record.
func (d MovieDetails) Summary() MovieResult {
	ids := make([]int, len(d.Genres))
	for i, g := range d.Genres {
		ids[i] = g.ID
	}
	return MovieResult{
		ID:               d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		Overview:         d.Overview,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		ReleaseDate:      d.ReleaseDate,
		Adult:            d.Adult,
		GenreIDs:         ids,
		OriginalLanguage: d.OriginalLanguage,
		Popularity:       d.Popularity,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		Video:            d.Video,
	}
}

// Genre is a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the response of the genre list endpoint.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// Collection is the franchise a movie belongs to.
type Collection struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
}

// ProductionCompany is a company credited on a movie.
type ProductionCompany struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// ProductionCountry is a country a movie was produced in.
type ProductionCountry struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

// SpokenLanguage is a language spoken in a movie.
type SpokenLanguage struct {
	EnglishName string `json:"english_name"`
	ISO6391     string `json:"iso_639_1"`
	Name        string `json:"name"`
}

// Configuration is the provider's image configuration.
type Configuration struct {
	Images     ImageConfiguration `json:"images"`
	ChangeKeys []string           `json:"change_keys"`
}

// ImageConfiguration describes how image URLs are assembled.
type ImageConfiguration struct {
	BaseURL       string   `json:"base_url"`
	SecureBaseURL string   `json:"secure_base_url"`
	BackdropSizes []string `json:"backdrop_sizes"`
	LogoSizes     []string `json:"logo_sizes"`
	PosterSizes   []string `json:"poster_sizes"`
	ProfileSizes  []string `json:"profile_sizes"`
	StillSizes    []string `json:"still_sizes"`
}

// ErrorResponse is the error body returned by the provider.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}

// ImageSize is an image width token. Values outside the constants are passed through verbatim.
type ImageSize string

const (
	SizeW92      ImageSize = "w92"
	SizeW154     ImageSize = "w154"
	SizeW185     ImageSize = "w185"
	SizeW342     ImageSize = "w342"
	SizeW500     ImageSize = "w500"
	SizeW780     ImageSize = "w780"
	SizeW1280    ImageSize = "w1280"
	SizeOriginal ImageSize = "original"
)

// DiscoverFilters are the optional filters of a discover request. Nil fields are not sent.
type DiscoverFilters struct {
	Page           *int
	WithGenres     *string
	SortBy         *string
	ReleaseDateGte *string
	ReleaseDateLte *string
}
