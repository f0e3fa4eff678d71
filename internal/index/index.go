// Package index provides ranked full-text search over a collection.
//
// The filter engine answers "which records contain this keyword" in source
// order. The index answers "which records match these words best" and
// orders hits by relevance. It is an in-memory bleve index rebuilt whenever
// the collection is reloaded.
package index

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/nao1215/showcase/internal/model"
)

// DefaultLimit is the number of hits returned when no limit is given.
const DefaultLimit = 10

// MaxLimit caps the number of hits.
const MaxLimit = 100

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("empty search query")

// document is what gets indexed for a record.
type document struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	Tags        []string `json:"tags"`
}

// Hit is one search result.
type Hit struct {
	Record model.Record `json:"record"`
	Score  float64      `json:"score"`
}

// Index is a search index over one collection.
type Index struct {
	index      bleve.Index
	collection *model.Collection
}

// Build indexes every record of c.
func Build(c *model.Collection) (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	const batchSize = 100
	batch := idx.NewBatch()
	for i := range c.Len() {
		r := c.At(i)
		doc := document{Title: r.Title, Description: r.Description, Body: r.Body, Tags: r.Tags}
		if err := batch.Index(strconv.Itoa(r.ID), doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index record %d: %w", r.ID, err)
		}
		if batch.Size() >= batchSize {
			if err := idx.Batch(batch); err != nil {
				_ = idx.Close()
				return nil, fmt.Errorf("index batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index batch: %w", err)
		}
	}
	return &Index{index: idx, collection: c}, nil
}

// Count returns the number of indexed records.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Search returns up to limit records matching query, best first. A category
// other than "" or "all" restricts hits to that category.
func (i *Index) Search(query, category string, limit int) ([]Hit, error) {
	return i.search(query, "", category, limit)
}

// SearchTitles is Search restricted to record titles. It serves galleries
// whose bodies are hidden by the reading gate.
func (i *Index) SearchTitles(query, category string, limit int) ([]Hit, error) {
	return i.search(query, "title", category, limit)
}

func (i *Index) search(query, field, category string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	mq := bleve.NewMatchQuery(query)
	if field != "" {
		mq.SetField(field)
	}
	req := bleve.NewSearchRequest(mq)
	// Category filtering happens after scoring, so ask for every match.
	req.Size = max(i.collection.Len(), 1)

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, min(limit, len(res.Hits)))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		r, ok := i.collection.Get(id)
		if !ok {
			continue
		}
		if category != "" && category != model.CategoryAll && r.Category != category {
			continue
		}
		hits = append(hits, Hit{Record: r, Score: h.Score})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}
