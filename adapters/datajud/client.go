package datajud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"jurimetria/domain/court"
	"jurimetria/internal"
	"jurimetria/ports"
)

// Client fetches processes from the public DataJud Elasticsearch API using
// search_after pagination. Returned processes are already sanitized against
// the court schema invariants; records with implausible or reversed dates are
// dropped and counted.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	window     court.DateWindow
	log        *internal.Logger
}

// NewClient creates a DataJud client for one tribunal index
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = DefaultConfig().RequestsPerMinute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		window:     court.DefaultDateWindow(),
		log:        internal.DefaultLogger,
	}, nil
}

var _ ports.ProcessSource = (*Client)(nil)

// FetchProcesses pages through the tribunal index until the query cap, the
// page cap or the end of the result set is reached
func (c *Client) FetchProcesses(ctx context.Context, query ports.ProcessQuery) ([]court.Process, error) {
	if len(query.SubjectCodes) == 0 {
		return nil, fmt.Errorf("datajud: at least one subject code is required")
	}

	var (
		procs     []court.Process
		dropped   int
		searchAfter []any
	)

	for page := 0; page < c.cfg.MaxPages; page++ {
		body, err := c.buildQuery(query, searchAfter)
		if err != nil {
			return nil, err
		}

		raw, err := c.post(ctx, body)
		if err != nil {
			return nil, err
		}

		hits := gjson.GetBytes(raw, "hits.hits").Array()
		if len(hits) == 0 {
			break
		}

		for _, hit := range hits {
			p, err := mapProcess(hit.Get("_source"))
			if err != nil {
				dropped++
				continue
			}
			clean, err := court.Sanitize(p, c.window)
			if err != nil {
				dropped++
				continue
			}
			procs = append(procs, clean)
			if query.MaxRecords > 0 && len(procs) >= query.MaxRecords {
				c.log.Info("datajud: fetched %d processes (%d dropped) from %s", len(procs), dropped, c.cfg.Tribunal)
				return procs, nil
			}
		}

		last := hits[len(hits)-1].Get("sort")
		if !last.Exists() {
			break
		}
		searchAfter = searchAfter[:0]
		for _, v := range last.Array() {
			searchAfter = append(searchAfter, v.Value())
		}
	}

	c.log.Info("datajud: fetched %d processes (%d dropped) from %s", len(procs), dropped, c.cfg.Tribunal)
	return procs, nil
}

// buildQuery assembles the Elasticsearch request body
func (c *Client) buildQuery(query ports.ProcessQuery, searchAfter []any) ([]byte, error) {
	must := []map[string]any{
		{"terms": map[string]any{"assuntos.codigo": query.SubjectCodes}},
	}
	if query.ClassCode > 0 {
		must = append(must, map[string]any{"term": map[string]any{"classe.codigo": query.ClassCode}})
	}
	if !query.FiledFrom.IsZero() || !query.FiledTo.IsZero() {
		dateRange := map[string]any{}
		if !query.FiledFrom.IsZero() {
			dateRange["gte"] = query.FiledFrom.Format(time.RFC3339)
		}
		if !query.FiledTo.IsZero() {
			dateRange["lte"] = query.FiledTo.Format(time.RFC3339)
		}
		must = append(must, map[string]any{"range": map[string]any{"dataAjuizamento": dateRange}})
	}

	body := map[string]any{
		"size":  c.cfg.PageSize,
		"query": map[string]any{"bool": map[string]any{"must": must}},
		"sort": []map[string]any{
			{"dataAjuizamento": map[string]any{"order": "asc"}},
			{"numeroProcesso": map[string]any{"order": "asc"}},
		},
		"_source": []string{
			"numeroProcesso", "classe.codigo", "classe.nome",
			"assuntos.codigo", "orgaoJulgador.nome",
			"dataAjuizamento", "dataHoraUltimaAtualizacao",
			"movimentos.codigo", "movimentos.nome", "movimentos.dataHora",
		},
	}
	if len(searchAfter) > 0 {
		body["search_after"] = searchAfter
	}
	return json.Marshal(body)
}

// post sends one search request with retry and backoff on transient failures
func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("datajud: rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SearchURL(), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("datajud: build request: %w", err)
		}
		req.Header.Set("Authorization", "APIKey "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("datajud: request failed: %w", err)
		} else {
			raw, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("datajud: read response: %w", readErr)
			} else if resp.StatusCode == http.StatusOK {
				return raw, nil
			} else {
				lastErr = fmt.Errorf("datajud: status %d: %s", resp.StatusCode, truncate(raw, 200))
				// 4xx other than 429 will not improve with retries
				if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
					return nil, lastErr
				}
			}
		}

		if attempt < c.cfg.MaxRetries {
			c.log.Warn("datajud: attempt %d failed: %v", attempt+1, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	return nil, lastErr
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
