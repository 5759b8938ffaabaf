package openaq

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// maxPages is a hard safety ceiling against runaway pagination from a
// misbehaving upstream. It is not a business limit.
const maxPages = 1000

// FetchAll walks an endpoint page by page, starting at page 1, until a
// short page signals the end of results. The client's limiter provides the
// inter-page delay. Any client failure aborts the whole pass with a
// FetchError; partial pages are discarded.
func (c *Client) FetchAll(ctx context.Context, endpoint string, pageSize int, extra url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		for k, vs := range extra {
			params[k] = vs
		}
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("page", strconv.Itoa(page))

		env, err := c.Get(ctx, endpoint, params)
		if err != nil {
			return nil, &FetchError{Endpoint: endpoint, Err: err}
		}

		all = append(all, env.Results...)
		if len(env.Results) < pageSize {
			break
		}
	}

	return all, nil
}
