package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/askmydocs/askmydocs/internal/config"
	"github.com/askmydocs/askmydocs/internal/model"
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"document_id": {"type": "keyword"},
			"chunk_text":  {"type": "text"},
			"metadata":    {"type": "object", "dynamic": true}
		}
	}
}`

type chunkDocument struct {
	DocumentID string         `json:"document_id"`
	ChunkText  string         `json:"chunk_text"`
	Metadata   model.Metadata `json:"metadata"`
}

type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(cfg config.SearchConfig) (*ElasticIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch client: %w", err)
	}
	return &ElasticIndex{client: client, index: cfg.Index}, nil
}

func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	exists, err := e.client.Indices.Exists([]string{e.index},
		e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	defer exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}
	res, err := e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", e.index, res.String())
	}
	return nil
}

// BulkUpsert writes one document's chunk entries through the bulk API and
// returns how many items were accepted. Any rejected item fails the whole
// call; the orchestrator maps that to the index-failed status.
func (e *ElasticIndex) BulkUpsert(ctx context.Context, documentID string, entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	var buf bytes.Buffer
	for _, entry := range entries {
		action := map[string]interface{}{
			"index": map[string]interface{}{"_index": e.index, "_id": entry.ID},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return 0, err
		}
		source := chunkDocument{
			DocumentID: documentID,
			ChunkText:  entry.Text,
			Metadata:   entry.Metadata,
		}
		if err := json.NewEncoder(&buf).Encode(source); err != nil {
			return 0, err
		}
	}
	res, err := e.client.Bulk(bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithRefresh("true"))
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index failed: %s", res.String())
	}
	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}
	success := 0
	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Status >= 200 && op.Status < 300 {
				success++
			}
		}
	}
	if parsed.Errors {
		return success, fmt.Errorf("bulk index rejected %d of %d entries", len(entries)-success, len(entries))
	}
	return success, nil
}

// DeleteByDocument removes every entry of the document. Refresh is forced so
// the deletions are visible to reads issued right after the call.
func (e *ElasticIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"document_id": documentID},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return err
	}
	res, err := e.client.DeleteByQuery([]string{e.index}, bytes.NewReader(body),
		e.client.DeleteByQuery.WithContext(ctx),
		e.client.DeleteByQuery.WithRefresh(true))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("delete by document %s: %s", documentID, res.String())
	}
	return nil
}

func (e *ElasticIndex) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.String())
	}
	return nil
}
