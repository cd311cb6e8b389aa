package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmaher/scrapewire/internal/scrape"
	"github.com/dmaher/scrapewire/internal/scrape/api"
)

// defaultTransform returns the provider transform for catalog API sources.
func defaultTransform(id string) api.Transform {
	switch id {
	case "hackernews":
		return hackerNewsTransform
	case "devto":
		return devtoTransform
	}
	return nil
}

type algoliaResponse struct {
	Hits []struct {
		ObjectID    string    `json:"objectID"`
		Title       string    `json:"title"`
		URL         string    `json:"url"`
		Author      string    `json:"author"`
		Points      int       `json:"points"`
		NumComments int       `json:"num_comments"`
		CreatedAt   time.Time `json:"created_at"`
		StoryText   string    `json:"story_text"`
	} `json:"hits"`
}

// hackerNewsTransform reads the Algolia search shape. Ask/Show HN stories
// have no external URL; those link back to the HN item page.
func hackerNewsTransform(body []byte, src scrape.SourceRef) ([]scrape.Article, error) {
	var resp algoliaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode algolia response: %w", err)
	}
	if resp.Hits == nil {
		return nil, fmt.Errorf("algolia response has no hits field")
	}

	articles := make([]scrape.Article, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		url := hit.URL
		if url == "" {
			url = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}
		description := hit.StoryText
		if description == "" {
			description = fmt.Sprintf("Hacker News discussion with %d points and %d comments.", hit.Points, hit.NumComments)
		}
		articles = append(articles, scrape.Article{
			Title:       hit.Title,
			Description: description,
			URL:         url,
			PublishedAt: hit.CreatedAt,
			Source:      src,
			Author:      hit.Author,
			Category:    src.Category,
		})
	}
	return articles, nil
}

type devtoItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	CoverImage  string    `json:"cover_image"`
	PublishedAt time.Time `json:"published_at"`
	User        struct {
		Name string `json:"name"`
	} `json:"user"`
}

// devtoTransform reads the DEV articles list shape.
func devtoTransform(body []byte, src scrape.SourceRef) ([]scrape.Article, error) {
	var items []devtoItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode dev.to response: %w", err)
	}

	articles := make([]scrape.Article, 0, len(items))
	for _, it := range items {
		articles = append(articles, scrape.Article{
			Title:       it.Title,
			Description: it.Description,
			URL:         it.URL,
			ImageURL:    it.CoverImage,
			PublishedAt: it.PublishedAt,
			Source:      src,
			Author:      it.User.Name,
			Category:    src.Category,
		})
	}
	return articles, nil
}
