package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const newsPage = `<html><body><ul>
<li class="story"><h3>Apple beats earnings estimates</h3></li>
<li class="story"><h3>Apple beats earnings estimates</h3></li>
<li class="story"><h3></h3></li>
<li class="story"><h3>iPhone demand surges in Asia</h3></li>
<li class="story"><h3>Analysts raise price targets</h3></li>
</ul></body></html>`

func testScraper(serverURL string) *Scraper {
	return &Scraper{
		timeout: 5 * time.Second,
		sources: []Source{{
			Name:          "test",
			URLTemplate:   serverURL + "/quote/{symbol}/news",
			ItemSelector:  "li.story",
			TitleSelector: "h3",
		}},
	}
}

func TestHeadlinesScrapesAndDedupes(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(newsPage))
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	headlines, err := s.Headlines(context.Background(), "aapl", 10)
	if err != nil {
		t.Fatalf("headlines: %v", err)
	}
	if gotPath != "/quote/AAPL/news" {
		t.Fatalf("path = %q, symbol should be uppercased", gotPath)
	}
	want := []string{
		"Apple beats earnings estimates",
		"iPhone demand surges in Asia",
		"Analysts raise price targets",
	}
	if len(headlines) != len(want) {
		t.Fatalf("headlines = %v, want %v", headlines, want)
	}
	for i := range want {
		if headlines[i] != want[i] {
			t.Fatalf("headlines[%d] = %q, want %q", i, headlines[i], want[i])
		}
	}
}

func TestHeadlinesRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(newsPage))
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	headlines, err := s.Headlines(context.Background(), "AAPL", 2)
	if err != nil {
		t.Fatalf("headlines: %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("headlines = %v, want 2", headlines)
	}
}

func TestHeadlinesFallsThroughEmptySource(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer empty.Close()
	full := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(newsPage))
	}))
	defer full.Close()

	s := testScraper(empty.URL)
	s.sources = append(s.sources, testScraper(full.URL).sources...)

	headlines, err := s.Headlines(context.Background(), "AAPL", 10)
	if err != nil {
		t.Fatalf("headlines: %v", err)
	}
	if len(headlines) == 0 {
		t.Fatal("expected fallback source to yield headlines")
	}
	if !strings.Contains(headlines[0], "Apple") {
		t.Fatalf("headlines = %v", headlines)
	}
}
