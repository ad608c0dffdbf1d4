package tmdb

type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// Movie is the subset of a TMDB list item the app reads. TV items from
// /tv/on_the_air land here too, with Title taken from their name.
type Movie struct {
	ID               int64     `json:"id"`
	MediaType        MediaType `json:"media_type"`
	Title            string    `json:"title"`
	Tagline          string    `json:"tagline,omitempty"`
	Overview         string    `json:"overview,omitempty"`
	PosterPath       string    `json:"poster_path,omitempty"`
	VoteAverage      float64   `json:"vote_average"`
	OriginalLanguage string    `json:"original_language,omitempty"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	Year             string    `json:"year,omitempty"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type resultsResponse struct {
	Results []resultItem `json:"results"`
}

type resultItem struct {
	ID               int64   `json:"id"`
	MediaType        string  `json:"media_type"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Tagline          string  `json:"tagline"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	VoteAverage      float64 `json:"vote_average"`
	OriginalLanguage string  `json:"original_language"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
}

func (r *resultItem) toMovie() Movie {
	m := Movie{
		ID:               r.ID,
		MediaType:        MediaMovie,
		Title:            r.Title,
		Tagline:          r.Tagline,
		Overview:         r.Overview,
		PosterPath:       r.PosterPath,
		VoteAverage:      r.VoteAverage,
		OriginalLanguage: r.OriginalLanguage,
		ReleaseDate:      r.ReleaseDate,
	}
	if r.MediaType == string(MediaTV) || (r.Title == "" && r.Name != "") {
		m.MediaType = MediaTV
		m.Title = r.Name
		m.ReleaseDate = r.FirstAirDate
	}
	m.Year = yearFromDate(m.ReleaseDate)
	return m
}

type genresResponse struct {
	Genres []Genre `json:"genres"`
}

type videosResponse struct {
	Results []Video `json:"results"`
}

func yearFromDate(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
