package nemis

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"nemis-backend/lib/textutil"
	"nemis-backend/lib/timezone"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errCacheMiss = badger.ErrKeyNotFound

// learner lookups are read-only and the underlying records change
// rarely, so a short-lived cache saves a three-round-trip exchange
const searchResultLifetime = int64(time.Hour / time.Second * 6)

type cachedSearch struct {
	Details   LearnerDetails
	ExpiresAt int64
}

type searchCache struct {
	// nil disables the cache
	db *badger.DB
}

func (c searchCache) key(username, query string) []byte {
	return []byte(username + ":" + textutil.NormalizeName(query))
}

func (c searchCache) get(ctx context.Context, username, query string) (LearnerDetails, error) {
	if c.db == nil {
		return LearnerDetails{}, errCacheMiss
	}

	ctx, span := tracer.Start(ctx, "searchCache:get")
	defer span.End()
	key := c.key(username, query)
	span.SetAttributes(attribute.String("cache_key", string(key)))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return LearnerDetails{}, errCacheMiss
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return LearnerDetails{}, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return LearnerDetails{}, err
	}

	var cached cachedSearch
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return LearnerDetails{}, err
	}

	if timezone.Now().Unix() >= cached.ExpiresAt {
		tx := c.db.NewTransaction(true)
		defer tx.Commit()
		err = tx.Delete(key)
		if err != nil {
			span.RecordError(err)
		}
		span.SetStatus(codes.Ok, "CACHE EXPIRED")
		return LearnerDetails{}, errCacheMiss
	}

	span.SetStatus(codes.Ok, "CACHE HIT")
	return cached.Details, nil
}

func (c searchCache) set(ctx context.Context, username, query string, details LearnerDetails) error {
	if c.db == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "searchCache:set")
	defer span.End()
	key := c.key(username, query)
	span.SetAttributes(attribute.String("cache_key", string(key)))

	serialized := bytes.NewBuffer(nil)
	err := gob.NewEncoder(serialized).Encode(cachedSearch{
		Details:   details,
		ExpiresAt: timezone.Now().Unix() + searchResultLifetime,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize lookup result")
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()
	err = tx.Set(key, serialized.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}
