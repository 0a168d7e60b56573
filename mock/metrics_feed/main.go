// Command metrics_feed serves deterministic synthetic channel feeds for local
// development against the feed provider.
package main

import (
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

var topics = []string{"tutorial", "review", "vlog", "shorts", "live", "challenge", "interview", "news"}

type channel struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subscribers int64  `json:"subscribers"`
	TotalViews  int64  `json:"total_views"`
	VideoCount  int64  `json:"video_count"`
}

type pagination struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

type response struct {
	Channel    channel          `json:"channel"`
	Videos     []map[string]any `json:"videos"`
	Pagination pagination       `json:"pagination"`
}

// generate builds the full feed of a channel. The same id always yields the
// same feed; publish dates are anchored to the current day.
func generate(id string, now time.Time) (channel, []map[string]any) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	count := 30 + rng.IntN(90)
	base := 500 + rng.Float64()*20000
	today := now.UTC().Truncate(24 * time.Hour)

	videos := make([]map[string]any, 0, count)
	var total int64
	for i := 0; i < count; i++ {
		// Log-normal spread produces a few breakout videos per channel.
		views := int64(base * math.Exp(rng.NormFloat64()*0.9))
		engagement := 0.01 + rng.Float64()*0.07
		likes := int64(float64(views) * engagement * 0.9)
		comments := int64(float64(views) * engagement * 0.1)
		age := (count - i) * (2 + rng.IntN(6))
		topic := topics[rng.IntN(len(topics))]

		v := map[string]any{
			"id":           fmt.Sprintf("%s-%04d", id, i),
			"title":        fmt.Sprintf("%s #%d", strings.ToUpper(topic[:1])+topic[1:], i+1),
			"tags":         []string{topic, "channel"},
			"published_at": today.AddDate(0, 0, -age).Add(time.Duration(rng.IntN(24)) * time.Hour).Format(time.RFC3339),
			"duration":     fmt.Sprintf("PT%dM%dS", 1+rng.IntN(40), rng.IntN(60)),
			"views":        views,
			"likes":        likes,
			"comments":     comments,
		}

		// Roughly one row in forty is malformed to exercise data quality handling.
		switch rng.IntN(40) {
		case 0:
			delete(v, "id")
		case 1:
			v["published_at"] = "not a date"
		case 2:
			v["views"] = "n/a"
		}

		total += views
		videos = append(videos, v)
	}

	ch := channel{
		ID:          id,
		Title:       "Synthetic " + id,
		Subscribers: int64(base * (20 + rng.Float64()*200)),
		TotalViews:  total,
		VideoCount:  int64(count),
	}
	return ch, videos
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Provider", "metrics-feed")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Metrics Feed] write error: %v", err)
	}
}

func videosHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch {
	case strings.HasPrefix(id, "missing"):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "channel not found"})
		return
	case strings.HasPrefix(id, "limited"):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "quota exceeded"})
		return
	}

	page := queryInt(r, "page", 1)
	perPage := min(queryInt(r, "per_page", defaultPerPage), maxPerPage)

	ch, videos := generate(id, time.Now())
	start := min((page-1)*perPage, len(videos))
	end := min(start+perPage, len(videos))

	writeJSON(w, http.StatusOK, response{
		Channel: ch,
		Videos:  videos[start:end],
		Pagination: pagination{
			Total:   len(videos),
			Page:    page,
			PerPage: perPage,
		},
	})
	log.Printf("[Metrics Feed] %s %s page=%d - 200 OK", r.Method, r.URL.Path, page)
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/channels/{id}/videos", videosHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	log.Println("Mock metrics feed running on :8081")
	server := &http.Server{
		Addr:         ":8081",
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
