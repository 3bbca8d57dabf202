package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"finchat-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefixes
	documentKeyPrefix = "finchat:document:"
	documentIndexKey  = "finchat:documents"
	filenameKeyPrefix = "finchat:filename:"
)

// RedisDocumentRegistry implements DocumentRegistry using Redis. Records
// are stored as JSON blobs with a global set index plus a filename index
// so re-uploads of the same report can find and replace the old record.
type RedisDocumentRegistry struct {
	client *redis.Client
}

// NewRedisDocumentRegistry creates a Redis-backed document registry.
func NewRedisDocumentRegistry(client *redis.Client) *RedisDocumentRegistry {
	return &RedisDocumentRegistry{client: client}
}

// Register stores a document record. A record with the same filename is
// replaced, mirroring the overwrite semantics of re-ingesting a report.
func (r *RedisDocumentRegistry) Register(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	// Drop any record the filename was previously bound to.
	prevID, err := r.client.Get(ctx, filenameKeyPrefix+doc.Filename).Result()
	if err != nil && err != redis.Nil {
		return NewDocumentRegistryError("register", doc.ID, err, "failed to check filename index")
	}
	if err == nil && prevID != doc.ID {
		if delErr := r.Delete(ctx, prevID); delErr != nil {
			var regErr *DocumentRegistryError
			if !errors.As(delErr, &regErr) || regErr.Message != "document not found" {
				return delErr
			}
		}
	}

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return NewDocumentRegistryError("register", doc.ID, err, "failed to marshal document")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, documentKeyPrefix+doc.ID, docJSON, 0)
	pipe.SAdd(ctx, documentIndexKey, doc.ID)
	pipe.Set(ctx, filenameKeyPrefix+doc.Filename, doc.ID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRegistryError("register", doc.ID, err, "failed to execute transaction")
	}
	return nil
}

// Get retrieves a document record by ID.
func (r *RedisDocumentRegistry) Get(ctx context.Context, documentID string) (*models.Document, error) {
	docJSON, err := r.client.Get(ctx, documentKeyPrefix+documentID).Result()
	if err == redis.Nil {
		return nil, DocumentNotFoundError(documentID)
	}
	if err != nil {
		return nil, NewDocumentRegistryError("get", documentID, err, "")
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, NewDocumentRegistryError("get", documentID, err, "failed to unmarshal document")
	}
	return &doc, nil
}

// FindByFilename resolves the filename index and fetches the record.
func (r *RedisDocumentRegistry) FindByFilename(ctx context.Context, filename string) (*models.Document, error) {
	documentID, err := r.client.Get(ctx, filenameKeyPrefix+filename).Result()
	if err == redis.Nil {
		return nil, DocumentNotFoundError("filename:" + filename)
	}
	if err != nil {
		return nil, NewDocumentRegistryError("find_by_filename", "", err, "")
	}
	return r.Get(ctx, documentID)
}

// UpdateStatus transitions the record and refreshes counts and timestamp.
func (r *RedisDocumentRegistry) UpdateStatus(ctx context.Context, documentID string, status models.DocumentStatus, chunkCount, pageCount int) error {
	doc, err := r.Get(ctx, documentID)
	if err != nil {
		return err
	}

	doc.Status = status
	if chunkCount > 0 {
		doc.ChunkCount = chunkCount
	}
	if pageCount > 0 {
		doc.PageCount = pageCount
	}
	doc.UpdatedAt = time.Now()

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return NewDocumentRegistryError("update_status", documentID, err, "failed to marshal document")
	}

	if err := r.client.Set(ctx, documentKeyPrefix+documentID, docJSON, 0).Err(); err != nil {
		return NewDocumentRegistryError("update_status", documentID, err, "")
	}
	return nil
}

// Delete removes the record and its index entries.
func (r *RedisDocumentRegistry) Delete(ctx context.Context, documentID string) error {
	doc, err := r.Get(ctx, documentID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, documentKeyPrefix+documentID)
	pipe.SRem(ctx, documentIndexKey, documentID)
	pipe.Del(ctx, filenameKeyPrefix+doc.Filename)
	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRegistryError("delete", documentID, err, "failed to execute transaction")
	}
	return nil
}

// List returns all registered documents.
func (r *RedisDocumentRegistry) List(ctx context.Context) ([]*models.Document, error) {
	docIDs, err := r.client.SMembers(ctx, documentIndexKey).Result()
	if err != nil {
		return nil, NewDocumentRegistryError("list", "", err, "")
	}
	if len(docIDs) == 0 {
		return []*models.Document{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(docIDs))
	for i, id := range docIDs {
		cmds[i] = pipe.Get(ctx, documentKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, NewDocumentRegistryError("list", "", err, "failed to execute batch get")
	}

	docs := make([]*models.Document, 0, len(docIDs))
	for i, cmd := range cmds {
		docJSON, err := cmd.Result()
		if err == redis.Nil {
			// Index entry without a record, skip.
			continue
		}
		if err != nil {
			return nil, NewDocumentRegistryError("list", docIDs[i], err, "")
		}

		var doc models.Document
		if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
			return nil, NewDocumentRegistryError("list", docIDs[i], err, "failed to unmarshal document")
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// Ping checks the Redis connection.
func (r *RedisDocumentRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
