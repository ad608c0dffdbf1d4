package session

import (
	"slices"

	"github.com/handsomefox/moodreel/internal/recommend"
	"github.com/handsomefox/moodreel/internal/tmdb"
	"github.com/handsomefox/moodreel/internal/trailers"
)

// ErrorMessage is shown in the grid when the catalog cannot be reached.
const ErrorMessage = "Error fetching movies. Please try again later."

type Region string

const (
	RegionSearch     Region = "search"
	RegionPreference Region = "preference"
	RegionGrid       Region = "grid"
	RegionTrending   Region = "trending"
	RegionForYou     Region = "foryou"
	RegionTrailers   Region = "trailers"
)

// Trending tabs. The For You tab shares the personalized picks.
const (
	TabDay    = "day"
	TabWeek   = "week"
	TabForYou = "foryou"
)

func ValidTab(tab string) bool {
	return tab == TabDay || tab == TabWeek || tab == TabForYou
}

type SearchState struct {
	Term      string   `json:"term"`
	Debounced string   `json:"debounced"`
	History   []string `json:"history"`
}

type PreferenceState struct {
	Mood    string `json:"mood"`
	Minutes int    `json:"minutes"`
}

type GridState struct {
	Mode    recommend.Kind `json:"mode,omitempty"`
	Movies  []tmdb.Movie   `json:"movies"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
}

type TrendingState struct {
	Tab     string           `json:"tab"`
	Movies  []tmdb.Movie     `json:"movies,omitempty"`
	Picks   []recommend.Pick `json:"picks,omitempty"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
}

type ForYouState struct {
	Picks   []recommend.Pick `json:"picks"`
	Loading bool             `json:"loading"`
}

type TrailersState struct {
	Category trailers.Category  `json:"category"`
	Trailers []trailers.Trailer `json:"trailers"`
	Loading  bool               `json:"loading"`
	Error    string             `json:"error,omitempty"`
}

// State is everything one browser tab renders.
type State struct {
	Search     SearchState     `json:"search"`
	Preference PreferenceState `json:"preference"`
	Grid       GridState       `json:"grid"`
	Trending   TrendingState   `json:"trending"`
	ForYou     ForYouState     `json:"foryou"`
	Trailers   TrailersState   `json:"trailers"`
}

func (st *State) clone() State {
	out := *st
	out.Search.History = slices.Clone(st.Search.History)
	out.Grid.Movies = slices.Clone(st.Grid.Movies)
	out.Trending.Movies = slices.Clone(st.Trending.Movies)
	out.Trending.Picks = slices.Clone(st.Trending.Picks)
	out.ForYou.Picks = slices.Clone(st.ForYou.Picks)
	out.Trailers.Trailers = slices.Clone(st.Trailers.Trailers)
	return out
}

func (st *State) region(r Region) any {
	c := st.clone()
	switch r {
	case RegionSearch:
		return c.Search
	case RegionPreference:
		return c.Preference
	case RegionGrid:
		return c.Grid
	case RegionTrending:
		return c.Trending
	case RegionForYou:
		return c.ForYou
	case RegionTrailers:
		return c.Trailers
	}
	return nil
}

// Event carries the new state of one region.
type Event struct {
	Region Region `json:"region"`
	State  any    `json:"state"`
}
