// Package mockarchive serves a deterministic stand-in for the Open-Meteo
// geocoding and historical archive APIs. Temperatures are synthesized from
// latitude, day of year and a per-day hash, so the same request always
// returns the same series.
package mockarchive

import (
	"encoding/binary"
	"hash/fnv"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	dateLayout = "2006-01-02"
	// maxDays bounds a single archive response.
	maxDays = 50_000
	// nullEvery marks roughly one day in this many as missing.
	nullEvery = 211
)

// Place is a zip code the mock geocoder knows.
type Place struct {
	ZipCode   string
	Name      string
	Admin1    string
	Latitude  float64
	Longitude float64
}

// DefaultPlaces returns the built-in gazetteer.
func DefaultPlaces() []Place {
	return []Place{
		{ZipCode: "94041", Name: "Mountain View", Admin1: "California", Latitude: 37.3894, Longitude: -122.0819},
		{ZipCode: "10001", Name: "New York", Admin1: "New York", Latitude: 40.7484, Longitude: -73.9967},
		{ZipCode: "60601", Name: "Chicago", Admin1: "Illinois", Latitude: 41.8858, Longitude: -87.6181},
		{ZipCode: "33101", Name: "Miami", Admin1: "Florida", Latitude: 25.7791, Longitude: -80.1978},
		{ZipCode: "98101", Name: "Seattle", Admin1: "Washington", Latitude: 47.6101, Longitude: -122.3364},
		{ZipCode: "85001", Name: "Phoenix", Admin1: "Arizona", Latitude: 33.4484, Longitude: -112.074},
	}
}

// Server is an http.Handler for /v1/search and /v1/archive.
type Server struct {
	mux      *http.ServeMux
	places   map[string]Place
	searches atomic.Int64
	archives atomic.Int64
	logger   *slog.Logger
}

// New creates a mock server knowing the given places.
func New(places []Place, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		places: make(map[string]Place, len(places)),
		logger: logger,
	}
	for _, p := range places {
		s.places[p.ZipCode] = p
	}
	s.mux.HandleFunc("GET /v1/search", s.handleSearch)
	s.mux.HandleFunc("GET /v1/archive", s.handleArchive)
	s.mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Searches returns how many geocoding requests were served.
func (s *Server) Searches() int64 { return s.searches.Load() }

// Archives returns how many archive requests were served.
func (s *Server) Archives() int64 { return s.archives.Load() }

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.searches.Add(1)
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		writeError(w, "Parameter 'name' is required")
		return
	}

	resp := searchResponse{GenerationTimeMS: 0.1}
	if p, ok := s.places[name]; ok && (q.Get("countryCode") == "" || q.Get("countryCode") == "US") {
		resp.Results = []searchResult{{
			Name:        p.Name,
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			CountryCode: "US",
			Admin1:      p.Admin1,
			Postcodes:   []string{p.ZipCode},
		}}
	}
	s.logger.Debug("mock search", "name", name, "results", len(resp.Results))
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	s.archives.Add(1)
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, "Latitude must be in range of -90 to 90°.")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil || lon < -180 || lon > 180 {
		writeError(w, "Longitude must be in range of -180 to 180°.")
		return
	}
	start, err := time.Parse(dateLayout, q.Get("start_date"))
	if err != nil {
		writeError(w, "Invalid date format for start_date: "+q.Get("start_date"))
		return
	}
	end, err := time.Parse(dateLayout, q.Get("end_date"))
	if err != nil {
		writeError(w, "Invalid date format for end_date: "+q.Get("end_date"))
		return
	}
	if end.Before(start) {
		writeError(w, "Parameter 'start_date' is out of allowed range from "+q.Get("start_date")+" to "+q.Get("end_date"))
		return
	}
	if end.Sub(start) > maxDays*24*time.Hour {
		writeError(w, "Requested date range is too long")
		return
	}
	if daily := q.Get("daily"); daily != "temperature_2m_max" {
		writeError(w, "Unsupported daily variable: "+daily)
		return
	}

	timezone := q.Get("timezone")
	if timezone == "" {
		timezone = "GMT"
	}

	times, temps := Series(lat, lon, start, end)
	s.logger.Debug("mock archive", "lat", lat, "lon", lon, "start", q.Get("start_date"), "end", q.Get("end_date"), "days", len(times))
	sharedobs.WriteJSON(w, http.StatusOK, archiveResponse{
		Latitude:  lat,
		Longitude: lon,
		Timezone:  timezone,
		DailyUnits: map[string]string{
			"time":               "iso8601",
			"temperature_2m_max": "°C",
		},
		Daily: dailyBlock{Time: times, TempMax: temps},
	})
}

// Series synthesizes the daily maxima from start to end inclusive. A nil
// temperature marks a day with no reading.
func Series(lat, lon float64, start, end time.Time) ([]string, []*float64) {
	n := int(end.Sub(start).Hours()/24) + 1
	times := make([]string, 0, n)
	temps := make([]*float64, 0, n)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		times = append(times, date)

		h := dayHash(lat, lon, date)
		if h%nullEvery == 0 {
			temps = append(temps, nil)
			continue
		}
		t := synthesize(lat, d.YearDay(), h)
		temps = append(temps, &t)
	}
	return times, temps
}

// synthesize returns a plausible daily maximum rounded to one decimal.
func synthesize(lat float64, yearDay int, h uint64) float64 {
	mean := 31 - 0.45*math.Abs(lat-20)
	amplitude := 3 + 0.25*math.Abs(lat)
	season := -math.Cos(2 * math.Pi * float64(yearDay-15) / 365.25)
	if lat < 0 {
		season = -season
	}
	noise := float64(h%601)/100 - 3 // -3.00 .. +3.00
	return math.Round((mean+amplitude*season+noise)*10) / 10
}

func dayHash(lat, lon float64, date string) uint64 {
	f := fnv.New64a()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(lat))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(lon))
	f.Write(buf[:])       //nolint:errcheck // hash writes never fail
	f.Write([]byte(date)) //nolint:errcheck // hash writes never fail
	return f.Sum64()
}

func writeError(w http.ResponseWriter, reason string) {
	sharedobs.WriteJSON(w, http.StatusBadRequest, apiError{Error: true, Reason: reason})
}

// Wire types mirror the upstream API.

type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

type searchResponse struct {
	Results          []searchResult `json:"results,omitempty"`
	GenerationTimeMS float64        `json:"generationtime_ms"`
}

type searchResult struct {
	Name        string   `json:"name"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	CountryCode string   `json:"country_code"`
	Admin1      string   `json:"admin1"`
	Postcodes   []string `json:"postcodes"`
}

type archiveResponse struct {
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Timezone   string            `json:"timezone"`
	DailyUnits map[string]string `json:"daily_units"`
	Daily      dailyBlock        `json:"daily"`
}

type dailyBlock struct {
	Time    []string   `json:"time"`
	TempMax []*float64 `json:"temperature_2m_max"`
}
