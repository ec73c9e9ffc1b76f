// Package audit keeps an append-only record of refresh token revocations in Elasticsearch.
// The token table only ever deletes rows, so this index is the only revocation history.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/auth_service/internal/config"
)

const (
	ReasonLogout   = "logout"
	ReasonRotation = "rotation"
)

type Revocation struct {
	TokenID   uint      `json:"tokenId"`
	UserID    uint      `json:"userId"`
	Reason    string    `json:"reason"`
	RevokedAt time.Time `json:"revokedAt"`
}

type Recorder interface {
	RecordRevocation(ctx context.Context, rev Revocation) error
}

type Noop struct{}

func (Noop) RecordRevocation(context.Context, Revocation) error { return nil }

type ESRecorder struct {
	client *elasticsearch.Client
	index  string
}

func NewClient(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}
	return client, nil
}

func NewESRecorder(client *elasticsearch.Client, index string) *ESRecorder {
	return &ESRecorder{client: client, index: index}
}

// New returns an Elasticsearch recorder, or Noop when no URL is configured.
func New(cfg config.ElasticConfig) (Recorder, error) {
	if cfg.URL == "" {
		return Noop{}, nil
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewESRecorder(client, cfg.Index), nil
}

func (r *ESRecorder) RecordRevocation(ctx context.Context, rev Revocation) error {
	if rev.RevokedAt.IsZero() {
		rev.RevokedAt = time.Now().UTC()
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(rev); err != nil {
		return fmt.Errorf("elasticsearch: encode revocation: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		&buf,
		r.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index revocation: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch: index revocation: %s: %s", res.Status(), body)
	}
	return nil
}
