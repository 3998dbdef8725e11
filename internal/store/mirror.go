package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
)

const (
	// DefaultIndexTimeout bounds a single index request.
	DefaultIndexTimeout = 10 * time.Second
	// defaultMirrorIndex is used when MirrorConfig.Index is empty.
	defaultMirrorIndex = "partnership_articles"
)

// ErrMirrorUnavailable is returned when the mirror cluster cannot be reached.
var ErrMirrorUnavailable = errors.New("elasticsearch mirror unavailable")

// Mirror receives each record after it was durably appended.
type Mirror interface {
	Index(ctx context.Context, r domain.ArticleRecord) error
}

// NopMirror discards records.
type NopMirror struct{}

// Index does nothing.
func (NopMirror) Index(context.Context, domain.ArticleRecord) error { return nil }

// MirrorConfig configures the Elasticsearch mirror.
type MirrorConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// articleMapping is the index mapping for mirrored records.
var articleMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"organization":       map[string]any{"type": "keyword"},
			"title":              map[string]any{"type": "text"},
			"url":                map[string]any{"type": "keyword"},
			"published_date_raw": map[string]any{"type": "keyword"},
			"matched_terms":      map[string]any{"type": "keyword"},
			"body_excerpt":       map[string]any{"type": "text"},
		},
	},
}

// ElasticsearchMirror indexes records into Elasticsearch using the SHA-256
// of the URL as document id, so re-indexing a record is idempotent.
type ElasticsearchMirror struct {
	client *es.Client
	index  string
	log    logger.Logger
}

// NewElasticsearchMirror connects to the cluster and ensures the index exists.
func NewElasticsearchMirror(ctx context.Context, cfg MirrorConfig, log logger.Logger) (*ElasticsearchMirror, error) {
	if cfg.Index == "" {
		cfg.Index = defaultMirrorIndex
	}
	if log == nil {
		log = logger.NewNop()
	}

	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	m := &ElasticsearchMirror{client: client, index: cfg.Index, log: log}
	if ensureErr := m.ensureIndex(ctx); ensureErr != nil {
		return nil, ensureErr
	}

	log.Info("Elasticsearch mirror ready",
		logger.Strings("addresses", cfg.Addresses),
		logger.String("index", cfg.Index),
	)
	return m, nil
}

// DocumentID returns the mirror document id for url.
func DocumentID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Index stores r under DocumentID(r.URL).
func (m *ElasticsearchMirror) Index(ctx context.Context, r domain.ArticleRecord) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultIndexTimeout)
	defer cancel()

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record for indexing: %w", err)
	}

	id := DocumentID(r.URL)
	res, err := m.client.Index(
		m.index,
		bytes.NewReader(body),
		m.client.Index.WithContext(ctx),
		m.client.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("failed to index record: %w", err)
	}
	defer closeBody(res.Body)

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}

	m.log.Debug("Record mirrored",
		logger.String("index", m.index),
		logger.String("doc_id", id),
		logger.URL(r.URL),
	)
	return nil
}

func (m *ElasticsearchMirror) ensureIndex(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultIndexTimeout)
	defer cancel()

	res, err := m.client.Indices.Exists([]string{m.index}, m.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMirrorUnavailable, err)
	}
	closeBody(res.Body)

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("%w: index check returned %s", ErrMirrorUnavailable, res.Status())
	}

	var buf bytes.Buffer
	if encodeErr := json.NewEncoder(&buf).Encode(articleMapping); encodeErr != nil {
		return fmt.Errorf("error encoding mapping: %w", encodeErr)
	}

	created, err := m.client.Indices.Create(
		m.index,
		m.client.Indices.Create.WithContext(ctx),
		m.client.Indices.Create.WithBody(&buf),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer closeBody(created.Body)

	if created.IsError() {
		return fmt.Errorf("failed to create index %s: %s", m.index, created.String())
	}

	m.log.Info("Created mirror index", logger.String("index", m.index))
	return nil
}

func closeBody(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, body)
		_ = body.Close()
	}
}
