// Package favorites stores the movies a user has marked as favorite.
package favorites

import (
	"context"
	"errors"
	"time"

	"github.com/slipstream/marquee/internal/tmdb"
)

// ErrNotFound is returned when a movie is not a favorite.
var ErrNotFound = errors.New("favorite not found")

// Favorite is a saved movie.
type Favorite struct {
	Movie   tmdb.MovieResult `json:"movie"`
	AddedAt time.Time        `json:"addedAt"`
}

// Store is a key-value store of favorites keyed by movie id.
// List returns favorites in the order they were first added.
// Put on an id that is already present keeps its position and AddedAt.
type Store interface {
	Get(ctx context.Context, id int) (Favorite, error)
	Put(ctx context.Context, fav Favorite) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]Favorite, error)
	Contains(ctx context.Context, id int) (bool, error)
}
