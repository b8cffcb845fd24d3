package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FetchFunc is the shape every external responder reduces to: one input,
// one formatted answer or an error. The dialogue manager converts errors
// into user-facing fallback text, never propagates them.
type FetchFunc func(ctx context.Context, input string) (string, error)

// TranslateFunc also carries the target language code.
type TranslateFunc func(ctx context.Context, text, target string) (string, error)

// Responders bundles the external collaborators the dialogue manager may
// call. Nil members mean the feature is unconfigured and the manager
// answers with its fallback text instead.
type Responders struct {
	Weather   FetchFunc
	News      FetchFunc
	Wiki      FetchFunc
	Translate TranslateFunc
	Complete  FetchFunc
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// NewWeatherResponder returns a current-conditions lookup against the
// OpenWeatherMap API.
func NewWeatherResponder(apiKey string) FetchFunc {
	client := newHTTPClient()
	return func(ctx context.Context, city string) (string, error) {
		q := url.Values{}
		q.Set("q", city)
		q.Set("appid", apiKey)
		q.Set("units", "metric")
		q.Set("lang", "ru")

		var payload struct {
			Weather []struct {
				Description string `json:"description"`
			} `json:"weather"`
			Main struct {
				Temp      float64 `json:"temp"`
				FeelsLike float64 `json:"feels_like"`
				Humidity  int     `json:"humidity"`
			} `json:"main"`
			Name string `json:"name"`
		}
		err := getJSON(ctx, client, "https://api.openweathermap.org/data/2.5/weather?"+q.Encode(), &payload)
		if err != nil {
			return "", fmt.Errorf("weather lookup for %q failed: %w", city, err)
		}

		description := ""
		if len(payload.Weather) > 0 {
			description = payload.Weather[0].Description
		}
		return fmt.Sprintf("%s: %s, %.0f°C (ощущается как %.0f°C), влажность %d%%",
			payload.Name, description, payload.Main.Temp, payload.Main.FeelsLike, payload.Main.Humidity), nil
	}
}

// NewWikiResponder returns a page-summary lookup against the Wikipedia
// REST API. The input is used as the page title.
func NewWikiResponder() FetchFunc {
	client := newHTTPClient()
	return func(ctx context.Context, query string) (string, error) {
		title := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(query), " ", "_"))

		var payload struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		}
		err := getJSON(ctx, client, "https://ru.wikipedia.org/api/rest_v1/page/summary/"+title, &payload)
		if err != nil {
			return "", fmt.Errorf("wikipedia lookup for %q failed: %w", query, err)
		}
		if payload.Extract == "" {
			return "", fmt.Errorf("wikipedia returned no summary for %q", query)
		}
		return fmt.Sprintf("%s\n\n%s", payload.Title, payload.Extract), nil
	}
}

// NewTranslateResponder returns a translation call against the MyMemory
// API. Source language is auto-detected server side.
func NewTranslateResponder() TranslateFunc {
	client := newHTTPClient()
	return func(ctx context.Context, text, target string) (string, error) {
		q := url.Values{}
		q.Set("q", text)
		q.Set("langpair", "autodetect|"+target)

		var payload struct {
			ResponseData struct {
				TranslatedText string `json:"translatedText"`
			} `json:"responseData"`
			ResponseStatus int `json:"responseStatus"`
		}
		err := getJSON(ctx, client, "https://api.mymemory.translated.net/get?"+q.Encode(), &payload)
		if err != nil {
			return "", fmt.Errorf("translation to %q failed: %w", target, err)
		}
		if payload.ResponseStatus != 200 || payload.ResponseData.TranslatedText == "" {
			return "", fmt.Errorf("translation service returned status %d", payload.ResponseStatus)
		}
		return payload.ResponseData.TranslatedText, nil
	}
}

// NewNewsResponder returns a top-headlines fetch against the NewsAPI.
func NewNewsResponder(apiKey string) FetchFunc {
	client := newHTTPClient()
	return func(ctx context.Context, _ string) (string, error) {
		q := url.Values{}
		q.Set("country", "ru")
		q.Set("pageSize", "5")
		q.Set("apiKey", apiKey)

		var payload struct {
			Articles []struct {
				Title string `json:"title"`
				URL   string `json:"url"`
			} `json:"articles"`
		}
		err := getJSON(ctx, client, "https://newsapi.org/v2/top-headlines?"+q.Encode(), &payload)
		if err != nil {
			return "", fmt.Errorf("news fetch failed: %w", err)
		}
		if len(payload.Articles) == 0 {
			return "", fmt.Errorf("news service returned no articles")
		}

		var b strings.Builder
		b.WriteString("Свежие заголовки:\n")
		for i, a := range payload.Articles {
			fmt.Fprintf(&b, "%d. %s\n%s\n", i+1, a.Title, a.URL)
		}
		return strings.TrimSpace(b.String()), nil
	}
}
