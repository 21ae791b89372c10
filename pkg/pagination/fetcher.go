// Package pagination provides eager retrieval of cursor-linked Graph
// collections. Pages are fetched sequentially in cursor order and the full
// record set is accumulated in memory, matching how the runbooks consume
// their working sets.
package pagination

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sargeschultz11/Azure-Runbooks/pkg/graph"
)

// Client is the request engine surface the fetcher drives.
type Client interface {
	Do(ctx context.Context, req graph.Request) (*graph.Response, error)
}

// FetchAll retrieves every page of the collection addressed by req,
// following the @odata.nextLink cursor until absent. Records are returned
// in cross-page order.
//
// Any request failure aborts the whole fetch; partial results are
// discarded. The runbooks act on complete working sets only.
func FetchAll(ctx context.Context, client Client, req graph.Request) ([]json.RawMessage, error) {
	var records []json.RawMessage
	pages := 0

	next := req
	for {
		resp, err := client.Do(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}

		page, err := resp.Collection()
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}

		records = append(records, page.Value...)
		pages++

		log.Debug().
			Str("url", next.URL).
			Int("page", pages).
			Int("page_records", len(page.Value)).
			Int("total_records", len(records)).
			Msg("Collection page fetched")

		if page.NextLink == "" {
			break
		}
		// The cursor URL is followed verbatim with the same auth.
		next = graph.NewGet(page.NextLink)
	}

	log.Info().
		Str("url", req.URL).
		Int("pages", pages).
		Int("records", len(records)).
		Msg("Collection fetch complete")

	return records, nil
}

// FetchAllAs retrieves every page of a collection and decodes each record
// into T.
func FetchAllAs[T any](ctx context.Context, client Client, req graph.Request) ([]T, error) {
	raw, err := FetchAll(ctx, client, req)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raw))
	for i, record := range raw {
		var item T
		if err := json.Unmarshal(record, &item); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
