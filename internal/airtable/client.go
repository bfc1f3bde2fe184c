package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/billhive/subsync/internal/config"
	ierr "github.com/billhive/subsync/internal/errors"
	"github.com/billhive/subsync/internal/httpclient"
	"github.com/billhive/subsync/internal/logger"
)

// Client is a thin client for the Airtable REST API, scoped to one base.
// It implements the subscription and discount grid repositories on top of
// the records endpoints.
type Client struct {
	config config.AirtableConfig
	client httpclient.Client
	log    *logger.Logger
}

// NewClient creates a new Airtable client
func NewClient(cfg config.AirtableConfig, client httpclient.Client, log *logger.Logger) *Client {
	return &Client{
		config: cfg,
		client: client,
		log:    log,
	}
}

// record mirrors the Airtable wire shape: an id plus an opaque fields object
type record struct {
	ID     string          `json:"id"`
	Fields json.RawMessage `json:"fields"`
}

type recordList struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.config.BaseURL, c.config.BaseID, url.PathEscape(table))
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	}
}

// listRecords fetches all records of a table matching the optional
// filterByFormula expression, following pagination offsets.
func (c *Client) listRecords(ctx context.Context, table, formula string) ([]record, error) {
	var records []record
	offset := ""

	for {
		query := url.Values{}
		if formula != "" {
			query.Set("filterByFormula", formula)
		}
		if offset != "" {
			query.Set("offset", offset)
		}

		reqURL := c.tableURL(table)
		if encoded := query.Encode(); encoded != "" {
			reqURL += "?" + encoded
		}

		resp, err := c.client.Send(ctx, &httpclient.Request{
			Method:  http.MethodGet,
			URL:     reqURL,
			Headers: c.headers(),
		})
		if err != nil {
			return nil, err
		}

		var page recordList
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Failed to decode record list for table %s", table).
				Mark(ierr.ErrHTTPClient)
		}

		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// getRecord fetches a single record by id
func (c *Client) getRecord(ctx context.Context, table, id string) (*record, error) {
	resp, err := c.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s/%s", c.tableURL(table), id),
		Headers: c.headers(),
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusNotFound {
			return nil, ierr.WithError(err).
				WithHintf("Record %s not found in table %s", id, table).
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(resp.Body, &rec); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Failed to decode record %s from table %s", id, table).
			Mark(ierr.ErrHTTPClient)
	}
	return &rec, nil
}

// patchRecord applies a partial fields update to a record
func (c *Client) patchRecord(ctx context.Context, table, id string, fields map[string]any) error {
	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode record update").
			Mark(ierr.ErrSystem)
	}

	_, err = c.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodPatch,
		URL:     fmt.Sprintf("%s/%s", c.tableURL(table), id),
		Headers: c.headers(),
		Body:    body,
	})
	return err
}
