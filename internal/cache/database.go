package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/postboard/internal/models"
)

var errDatabaseStoreNotInitialised = errors.New("cache: database store not initialised")

// DatabaseStore implements the cache Store interface using the primary SQL database.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// IncrementWithTTL atomically increments a counter for the supplied key.
func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s == nil {
		return 0, 0, errDatabaseStoreNotInitialised
	}
	if window <= 0 {
		window = time.Minute
	}

	now := s.now()
	var (
		count  int64
		expiry time.Time
	)

	err := s.db.WithContext(ensureContext(ctx)).Transaction(func(tx *gorm.DB) error {
		// Seed a zero counter so concurrent first increments share one row.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{keyColumn},
			DoNothing: true,
		}).Create(&models.CacheEntry{
			Key:       key,
			Value:     []byte("0"),
			ExpiresAt: now.Add(window),
		}).Error; err != nil {
			return err
		}

		var entry models.CacheEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(keyEquals(key)).
			Take(&entry).Error; err != nil {
			return err
		}

		if entry.Expired(now) {
			count = 1
			expiry = now.Add(window)
		} else {
			current, _ := strconv.ParseInt(string(entry.Value), 10, 64)
			count = current + 1
			expiry = entry.ExpiresAt
		}

		return tx.Model(&models.CacheEntry{}).
			Where(keyEquals(key)).
			Updates(map[string]any{
				"value":      []byte(strconv.FormatInt(count, 10)),
				"expires_at": expiry,
			}).Error
	})
	if err != nil {
		return 0, 0, err
	}

	return count, expiry.Sub(now), nil
}

// Set upserts the value for a given key with expiry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil {
		return errDatabaseStoreNotInitialised
	}

	entry := models.CacheEntry{
		Key:   key,
		Value: value,
	}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}

	return s.db.WithContext(ensureContext(ctx)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&entry).Error
}

// Get retrieves a value by key, respecting expiry.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, errDatabaseStoreNotInitialised
	}
	ctx = ensureContext(ctx)

	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Where(keyEquals(key)).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if entry.Expired(s.now()) {
		if err := s.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return errDatabaseStoreNotInitialised
	}
	if len(keys) == 0 {
		return nil
	}

	values := make([]any, len(keys))
	for i, key := range keys {
		values[i] = key
	}

	return s.db.WithContext(ensureContext(ctx)).
		Where(clause.IN{Column: keyColumn, Values: values}).
		Delete(&models.CacheEntry{}).Error
}

// DeletePrefix removes every row whose key starts with prefix.
func (s *DatabaseStore) DeletePrefix(ctx context.Context, prefix string) error {
	if s == nil {
		return errDatabaseStoreNotInitialised
	}

	query := s.db.WithContext(ensureContext(ctx))
	if prefix == "" {
		return query.Where("1 = 1").Delete(&models.CacheEntry{}).Error
	}

	return query.
		Where(clause.Expr{
			SQL:  "? LIKE ? ESCAPE '!'",
			Vars: []any{keyColumn, escapeLike(prefix) + "%"},
		}).
		Delete(&models.CacheEntry{}).Error
}

// PurgeExpired deletes rows that expired at or before now and returns how
// many were removed.
func (s *DatabaseStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if s == nil {
		return 0, errDatabaseStoreNotInitialised
	}

	result := s.db.WithContext(ensureContext(ctx)).
		Where("expires_at > ? AND expires_at <= ?", time.Time{}, now.UTC()).
		Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

var keyColumn = clause.Column{Name: "key"}

func keyEquals(key string) clause.Eq {
	return clause.Eq{Column: keyColumn, Value: key}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
