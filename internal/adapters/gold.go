package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
)

// goldAdapter pulls structured JSON APIs with offset/limit pagination.
type goldAdapter struct {
	client *HTTPClient
	logger *zap.Logger
}

func (a *goldAdapter) FetchRaw(ctx context.Context, src registry.SourceDescriptor, limit int) ([]models.RawRecord, error) {
	pace := newPacer(src.RateLimitDelay)

	offsetParam := src.OffsetParam
	if offsetParam == "" {
		offsetParam = "offset"
	}
	limitParam := src.LimitParam
	if limitParam == "" {
		limitParam = "limit"
	}

	var records []models.RawRecord
	for page := 0; page < src.MaxPages; page++ {
		if err := pace.wait(ctx); err != nil {
			return records, err
		}

		pageURL, err := withQuery(src.URL, map[string]string{
			offsetParam: strconv.Itoa(page * src.BatchSize),
			limitParam:  strconv.Itoa(src.BatchSize),
		})
		if err != nil {
			return nil, err
		}

		body, err := a.client.get(ctx, pageURL)
		if err != nil {
			return records, fmt.Errorf("fetch failed for %s: %w", src.Slug, err)
		}

		items, err := decodeItems(body, src.ItemsPath)
		if err != nil {
			return records, fmt.Errorf("malformed payload from %s: %w", src.Slug, err)
		}
		if len(items) == 0 {
			break
		}

		records = append(records, items...)
		a.logger.Debug("fetched page",
			zap.String("source", src.Slug),
			zap.Int("page", page),
			zap.Int("items", len(items)),
		)

		if limit > 0 && len(records) >= limit {
			records = records[:limit]
			break
		}
		if len(items) < src.BatchSize {
			break
		}
	}
	return records, nil
}

func (a *goldAdapter) Parse(src registry.SourceDescriptor, raw models.RawRecord) (*models.CanonicalEvent, error) {
	return canonicalize(src, raw), nil
}

// decodeItems accepts a top-level JSON array, or an object whose items live
// under itemsPath (or one of the usual envelope keys).
func decodeItems(body []byte, itemsPath string) ([]models.RawRecord, error) {
	var asList []models.RawRecord
	if err := json.Unmarshal(body, &asList); err == nil {
		return asList, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	candidates := []string{itemsPath, "items", "events", "results", "data", "records"}
	for _, key := range candidates {
		if key == "" {
			continue
		}
		rawItems, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(rawItems, &asList); err != nil {
			return nil, err
		}
		return asList, nil
	}
	return nil, fmt.Errorf("no item list found in payload")
}

func withQuery(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid source url: %w", err)
	}
	q := u.Query()
	for key, val := range params {
		q.Set(key, val)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
