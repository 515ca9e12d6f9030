package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

const (
	articleBucket = "articles"
	keyBucket     = "article_keys"
)

// boltStore implements Store backed by BoltDB. Articles live under their
// sequence id; a second bucket maps the dedup key to that id.
type boltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, now func() time.Time) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{articleBucket, keyBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	if now == nil {
		now = time.Now
	}
	return &boltStore{db: db, now: now}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Exists(ctx context.Context, title, source string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		keys, err := bucket(tx, keyBucket)
		if err != nil {
			return err
		}
		exists = keys.Get(dedupKey(title, source)) != nil
		return nil
	})
	return exists, err
}

// Save writes the article and its key index in one transaction, so a key can
// never be stored twice.
func (b *boltStore) Save(ctx context.Context, a *domain.Article) error {
	if err := validArticle(a); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := *a
	rec.CreatedAt = b.now()

	err := b.db.Update(func(tx *bolt.Tx) error {
		articles, err := bucket(tx, articleBucket)
		if err != nil {
			return err
		}
		keys, err := bucket(tx, keyBucket)
		if err != nil {
			return err
		}

		key := dedupKey(rec.Title, rec.Source)
		if keys.Get(key) != nil {
			return ErrDuplicate
		}

		seq, err := articles.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		rec.ID = seq

		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode article: %w", err)
		}
		id := encodeID(seq)
		if err := articles.Put(id, payload); err != nil {
			return err
		}
		return keys.Put(key, id)
	})
	if err != nil {
		return err
	}

	a.ID = rec.ID
	a.CreatedAt = rec.CreatedAt
	return nil
}

func (b *boltStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var deleted int64
	err := b.db.Update(func(tx *bolt.Tx) error {
		articles, err := bucket(tx, articleBucket)
		if err != nil {
			return err
		}
		keys, err := bucket(tx, keyBucket)
		if err != nil {
			return err
		}

		// Collect first; deleting under an open cursor can skip entries.
		var expired []domain.Article
		if err := scan(articles, func(a domain.Article) {
			if a.CreatedAt.Before(cutoff) {
				expired = append(expired, a)
			}
		}); err != nil {
			return err
		}

		for _, a := range expired {
			if err := articles.Delete(encodeID(a.ID)); err != nil {
				return err
			}
			if err := keys.Delete(dedupKey(a.Title, a.Source)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

func (b *boltStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := b.db.View(func(tx *bolt.Tx) error {
		articles, err := bucket(tx, articleBucket)
		if err != nil {
			return err
		}
		if since.IsZero() {
			return articles.ForEach(func(_, _ []byte) error {
				count++
				return nil
			})
		}
		return scan(articles, func(a domain.Article) {
			if !a.CreatedAt.Before(since) {
				count++
			}
		})
	})
	return count, err
}

func (b *boltStore) DistinctSources(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	err := b.db.View(func(tx *bolt.Tx) error {
		articles, err := bucket(tx, articleBucket)
		if err != nil {
			return err
		}
		return scan(articles, func(a domain.Article) {
			seen[a.Source] = struct{}{}
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func bucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	bkt := tx.Bucket([]byte(name))
	if bkt == nil {
		return nil, fmt.Errorf("%s bucket missing", name)
	}
	return bkt, nil
}

func scan(articles *bolt.Bucket, fn func(domain.Article)) error {
	return articles.ForEach(func(k, v []byte) error {
		var a domain.Article
		if err := json.Unmarshal(v, &a); err != nil {
			return fmt.Errorf("decode article %x: %w", k, err)
		}
		fn(a)
		return nil
	})
}

// dedupKey joins title and source with a separator neither can contain after cleaning.
func dedupKey(title, source string) []byte {
	return []byte(title + "\x00" + source)
}

func encodeID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}
