package simulation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/duelo/pkg/logger"
)

// Seed submits NumItems fresh items to the service. Duplicate titles are
// regenerated rather than counted as failures.
func Seed(ctx context.Context, config *Config) (int, error) {
	logger.Get().Info(ctx, "seeding items",
		logger.String("baseURL", config.BaseURL),
		logger.Int("items", config.NumItems))

	client := newHTTPClient(config.Timeout)
	gen := newGenerator(time.Now().UnixNano())
	url := config.BaseURL + "/items"

	seeded := 0
	attempts := 0
	maxAttempts := config.NumItems * 3

	for seeded < config.NumItems && attempts < maxAttempts {
		select {
		case <-ctx.Done():
			return seeded, fmt.Errorf("context cancelled during seeding: %w", ctx.Err())
		default:
		}
		attempts++

		title := gen.title()
		req := itemRequest{Title: title, ImageURL: gen.imageURL(title)}

		var created itemResponse
		status, err := client.post(ctx, url, req, &created)
		switch {
		case err != nil:
			return seeded, fmt.Errorf("item submission failed: %w", err)
		case status == http.StatusCreated:
			seeded++
			if config.Verbose {
				logger.Get().Debug(ctx, "item seeded",
					logger.String("itemID", created.ItemID),
					logger.String("title", created.Title))
			}
		case status == http.StatusConflict:
			// Title collision, try another
			continue
		default:
			return seeded, fmt.Errorf("item submission returned status %d", status)
		}
	}

	if seeded < config.NumItems {
		return seeded, fmt.Errorf("seeded only %d of %d items after %d attempts", seeded, config.NumItems, attempts)
	}

	logger.Get().Info(ctx, "seeding completed", logger.Int("seeded", seeded))
	return seeded, nil
}
