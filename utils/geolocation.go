package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
)

type GeoLocation struct {
	Country string
	City    string
	Lat     float64
	Lon     float64
}

// GeoResolver answers country/city/coordinates for an IP, preferring a
// local GeoIP database and falling back to ip-api.com. Results are
// cached for the process lifetime.
type GeoResolver struct {
	db         *geoip2.Reader
	httpClient *http.Client
	cache      sync.Map // map[string]GeoLocation
}

// NewGeoResolver opens the database at dbPath when set. A missing or
// unreadable database is not fatal; the resolver runs API-only.
func NewGeoResolver(dbPath string) *GeoResolver {
	var db *geoip2.Reader

	if dbPath != "" {
		var err error
		db, err = geoip2.Open(dbPath)
		if err != nil {
			log.Printf("Warning: could not open GeoIP database at %s: %v (API fallback only)", dbPath, err)
			db = nil
		}
	}

	return &GeoResolver{
		db: db,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (g *GeoResolver) Close() {
	if g != nil && g.db != nil {
		g.db.Close()
	}
}

// Lookup is safe on a nil receiver and never fails; unknown locations
// come back as "Unknown" with zero coordinates.
func (g *GeoResolver) Lookup(ipStr string) (string, string, float64, float64) {
	if g == nil {
		return "Unknown", "Unknown", 0, 0
	}

	if val, ok := g.cache.Load(ipStr); ok {
		loc := val.(GeoLocation)
		return loc.Country, loc.City, loc.Lat, loc.Lon
	}

	var loc GeoLocation
	var found bool

	if g.db != nil {
		if ip := net.ParseIP(ipStr); ip != nil {
			if record, err := g.db.City(ip); err == nil {
				loc = GeoLocation{
					Country: record.Country.Names["en"],
					City:    record.City.Names["en"],
					Lat:     record.Location.Latitude,
					Lon:     record.Location.Longitude,
				}
				found = true
			}
		}
	}

	if !found {
		if apiLoc, err := g.fetchFromAPI(ipStr); err == nil {
			loc = *apiLoc
			found = true
		}
	}

	if !found {
		loc = GeoLocation{Country: "Unknown", City: "Unknown"}
	}

	g.cache.Store(ipStr, loc)
	return loc.Country, loc.City, loc.Lat, loc.Lon
}

type ipApiResponse struct {
	Country string  `json:"country"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Status  string  `json:"status"`
}

// fetchFromAPI queries ip-api.com, retrying with exponential backoff
// (500ms, 1s, 2s) since the free tier rate-limits bursts.
func (g *GeoResolver) fetchFromAPI(ip string) (*GeoLocation, error) {
	url := fmt.Sprintf("http://ip-api.com/json/%s", ip)

	var lastErr error
	delay := 500 * time.Millisecond

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}

		loc, err := g.fetchOnce(url)
		if err == nil {
			return loc, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (g *GeoResolver) fetchOnce(url string) (*GeoLocation, error) {
	resp, err := g.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error: %d", resp.StatusCode)
	}

	var apiResp ipApiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}

	if apiResp.Status == "fail" {
		return nil, fmt.Errorf("api returned fail status")
	}

	return &GeoLocation{
		Country: apiResp.Country,
		City:    apiResp.City,
		Lat:     apiResp.Lat,
		Lon:     apiResp.Lon,
	}, nil
}
