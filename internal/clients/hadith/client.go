package hadith

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/utils"
)

// Category is one node of the external content taxonomy.
type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Hadith is the live content payload served by the external source. The
// engine never stores it; it is fetched on demand for enrichment and
// pattern analysis.
type Hadith struct {
	ID           int64    `json:"id"`
	Text         string   `json:"hadeeth"`
	Attribution  string   `json:"attribution"`
	Reference    string   `json:"reference"`
	Grade        string   `json:"grade"`
	Explanation  string   `json:"explanation"`
	Hints        []string `json:"hints"`
	WordMeanings []struct {
		Word    string `json:"word"`
		Meaning string `json:"meaning"`
	} `json:"words_meanings"`
	Categories []int64 `json:"categories"`
}

type Client interface {
	GetHadith(ctx context.Context, id int64) (*Hadith, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type Config struct {
	BaseURL  string
	Language string
	Timeout  time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	timeoutSec := utils.GetEnvAsInt("HADITH_API_TIMEOUT_SECONDS", 5, log)
	return Config{
		BaseURL:  utils.GetEnv("HADITH_API_BASE_URL", "https://hadeethenc.com/api/v1", log),
		Language: utils.GetEnv("HADITH_API_LANG", "en", log),
		Timeout:  time.Duration(timeoutSec) * time.Second,
	}
}

type client struct {
	log      *logger.Logger
	http     *http.Client
	baseURL  string
	language string
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv(log))
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing HADITH_API_BASE_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	lang := strings.TrimSpace(cfg.Language)
	if lang == "" {
		lang = "en"
	}
	return &client{
		log:      log.With("client", "HadithClient"),
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  base,
		language: lang,
	}, nil
}

func (c *client) GetHadith(ctx context.Context, id int64) (*Hadith, error) {
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("id", strconv.FormatInt(id, 10))

	// The source serializes ids and category ids as strings.
	var raw struct {
		ID           json.Number `json:"id"`
		Text         string      `json:"hadeeth"`
		Attribution  string      `json:"attribution"`
		Reference    string      `json:"reference"`
		Grade        string      `json:"grade"`
		Explanation  string      `json:"explanation"`
		Hints        []string    `json:"hints"`
		WordMeanings []struct {
			Word    string `json:"word"`
			Meaning string `json:"meaning"`
		} `json:"words_meanings"`
		Categories []json.Number `json:"categories"`
	}
	if err := c.getJSON(ctx, "/hadeeths/one/", q, &raw); err != nil {
		return nil, err
	}

	h := &Hadith{
		ID:           id,
		Text:         raw.Text,
		Attribution:  raw.Attribution,
		Reference:    raw.Reference,
		Grade:        raw.Grade,
		Explanation:  raw.Explanation,
		Hints:        raw.Hints,
		WordMeanings: raw.WordMeanings,
	}
	if parsed, err := raw.ID.Int64(); err == nil && parsed != 0 {
		h.ID = parsed
	}
	for _, cat := range raw.Categories {
		if cid, err := cat.Int64(); err == nil {
			h.Categories = append(h.Categories, cid)
		}
	}
	return h, nil
}

func (c *client) ListCategories(ctx context.Context) ([]Category, error) {
	q := url.Values{}
	q.Set("language", c.language)

	var raw []struct {
		ID    json.Number `json:"id"`
		Title string      `json:"title"`
	}
	if err := c.getJSON(ctx, "/categories/list/", q, &raw); err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(raw))
	for _, item := range raw {
		id, err := item.ID.Int64()
		if err != nil {
			continue
		}
		categories = append(categories, Category{ID: id, Title: item.Title})
	}
	return categories, nil
}

func (c *client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("hadith api: %s returned %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("hadith api: decode %s: %w", path, err)
	}
	return nil
}
