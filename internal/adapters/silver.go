package adapters

import (
	"context"
	"encoding/xml"
	"fmt"

	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// silverAdapter pulls RSS and Atom feeds.
type silverAdapter struct {
	client *HTTPClient
	logger *zap.Logger
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
	Category    string `xml:"category"`
	Enclosure   struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string `xml:"title"`
	ID      string `xml:"id"`
	Updated string `xml:"updated"`
	Summary string `xml:"summary"`
	Content string `xml:"content"`
	Links   []struct {
		Href string `xml:"href,attr"`
		Rel  string `xml:"rel,attr"`
	} `xml:"link"`
}

func (a *silverAdapter) FetchRaw(ctx context.Context, src registry.SourceDescriptor, limit int) ([]models.RawRecord, error) {
	pace := newPacer(src.RateLimitDelay)
	if err := pace.wait(ctx); err != nil {
		return nil, err
	}

	body, err := a.client.get(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("feed fetch failed for %s: %w", src.Slug, err)
	}

	records, err := parseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("malformed feed from %s: %w", src.Slug, err)
	}

	a.logger.Debug("fetched feed", zap.String("source", src.Slug), zap.Int("items", len(records)))
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (a *silverAdapter) Parse(src registry.SourceDescriptor, raw models.RawRecord) (*models.CanonicalEvent, error) {
	// Feed dates usually live in the item body rather than pubDate; prefer
	// an explicit date found in the text over the publication timestamp.
	if _, hasDate := raw["start_date"]; !hasDate {
		title, _ := raw["title"].(string)
		description, _ := raw["description"].(string)
		if t, ok := findDate(title, description); ok {
			raw["start_date"] = t.Format("2006-01-02")
		} else if pub, ok := raw["date"].(string); ok {
			raw["start_date"] = pub
		}
	}
	return canonicalize(src, raw), nil
}

// parseFeed decodes RSS first, then Atom.
func parseFeed(body []byte) ([]models.RawRecord, error) {
	var rss rssFeed
	if err := xml.Unmarshal(body, &rss); err == nil && len(rss.Channel.Items) > 0 {
		records := make([]models.RawRecord, 0, len(rss.Channel.Items))
		for _, item := range rss.Channel.Items {
			records = append(records, models.RawRecord{
				"title":       item.Title,
				"url":         item.Link,
				"description": item.Description,
				"date":        item.PubDate,
				"external_id": item.GUID,
				"image":       item.Enclosure.URL,
				"category":    item.Category,
			})
		}
		return records, nil
	}

	var atom atomFeed
	if err := xml.Unmarshal(body, &atom); err != nil {
		return nil, err
	}
	if len(atom.Entries) == 0 {
		return nil, fmt.Errorf("feed has no recognizable items")
	}

	records := make([]models.RawRecord, 0, len(atom.Entries))
	for _, entry := range atom.Entries {
		description := entry.Summary
		if description == "" {
			description = entry.Content
		}
		var link string
		for _, l := range entry.Links {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}
		records = append(records, models.RawRecord{
			"title":       entry.Title,
			"url":         link,
			"description": description,
			"date":        entry.Updated,
			"external_id": entry.ID,
		})
	}
	return records, nil
}
