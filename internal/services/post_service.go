package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/postboard/internal/cache"
	"github.com/charlesng35/postboard/internal/database"
	"github.com/charlesng35/postboard/internal/models"
	"github.com/charlesng35/postboard/pkg/logger"
	"github.com/charlesng35/postboard/pkg/metrics"
)

const (
	// ListCachePrefix namespaces every cached listing page.
	ListCachePrefix = "posts:list:"
	// DefaultListCacheTTL is how long a cached listing page stays valid.
	DefaultListCacheTTL = 300 * time.Second

	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PostFilters narrows a listing. Zero values mean "no filter".
type PostFilters struct {
	AuthorID *uint
	// Title matches posts whose title contains it, case-sensitively.
	Title    string
	DateFrom *time.Time
	DateTo   *time.Time
}

// ListPostsOptions controls pagination and filtering for post listing.
type ListPostsOptions struct {
	Page    int
	Limit   int
	Filters PostFilters
}

// AuthorView is the public projection of a post's author.
type AuthorView struct {
	ID    uint   `json:"id" msgpack:"id"`
	Email string `json:"email" msgpack:"email"`
}

// PostView is the shape of a post inside a listing.
type PostView struct {
	ID          uint       `json:"id" msgpack:"id"`
	Title       string     `json:"title" msgpack:"title"`
	Description string     `json:"description" msgpack:"description"`
	Author      AuthorView `json:"author" msgpack:"author"`
	CreatedAt   time.Time  `json:"created_at" msgpack:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" msgpack:"updated_at"`
}

// ListResult is one page of posts plus the number of posts matching the filters.
type ListResult struct {
	Data  []PostView `json:"data" msgpack:"data"`
	Total int64      `json:"total" msgpack:"total"`
}

// CreatePostInput describes a new post.
type CreatePostInput struct {
	Title       string
	Description string
}

// UpdatePostInput carries the fields to change; nil fields are left untouched.
type UpdatePostInput struct {
	Title       *string
	Description *string
}

// PostServiceOption customises a PostService.
type PostServiceOption func(*PostService)

// WithListCache puts store in front of List. A nil store disables caching.
func WithListCache(store cache.Store, ttl time.Duration) PostServiceOption {
	return func(s *PostService) {
		s.cache = store
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// PostService owns post persistence, the cached listing pipeline and the
// invalidation performed by every write.
type PostService struct {
	db       *gorm.DB
	cache    cache.Store
	cacheTTL time.Duration
	log      *zap.Logger

	// purges counts list cache purges. purgeMu orders page writes against them.
	purgeMu sync.RWMutex
	purges  uint64
}

// NewPostService constructs a PostService.
func NewPostService(db *gorm.DB, opts ...PostServiceOption) (*PostService, error) {
	if db == nil {
		return nil, errors.New("post service: db is required")
	}

	svc := &PostService{
		db:       db,
		cacheTTL: DefaultListCacheTTL,
		log:      logger.WithModule("posts"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// List returns one page of posts, newest first. Identical requests within the
// cache TTL are answered from the cache without touching the database.
func (s *PostService) List(ctx context.Context, opts ListPostsOptions) (*ListResult, error) {
	ctx = ensureContext(ctx)

	opts, err := normaliseListOptions(opts)
	if err != nil {
		return nil, err
	}

	key, err := listCacheKey(opts)
	if err != nil {
		return nil, fmt.Errorf("post service: build cache key: %w", err)
	}

	var generation uint64
	if s.cache != nil {
		generation = s.purgeGeneration()
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("post service: read list cache: %w", err)
		}
		if ok {
			var result ListResult
			if err := cache.Decode(cached, &result); err != nil {
				return nil, fmt.Errorf("post service: decode list cache: %w", err)
			}
			result.normalise()
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			s.log.Debug("list cache hit", zap.String("key", key))
			return &result, nil
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		s.log.Debug("list cache miss", zap.String("key", key))
	}

	result, err := s.queryList(ctx, opts)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		encoded, err := cache.Encode(result)
		if err != nil {
			return nil, fmt.Errorf("post service: encode list cache: %w", err)
		}
		if err := s.storeListPage(ctx, key, encoded, generation); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *PostService) purgeGeneration() uint64 {
	s.purgeMu.RLock()
	defer s.purgeMu.RUnlock()
	return s.purges
}

// storeListPage caches a page unless a write purged the cache after the page
// was read from the database.
func (s *PostService) storeListPage(ctx context.Context, key string, encoded []byte, generation uint64) error {
	s.purgeMu.RLock()
	defer s.purgeMu.RUnlock()

	if s.purges != generation {
		s.log.Debug("list cache write skipped after purge", zap.String("key", key))
		return nil
	}
	if err := s.cache.Set(ctx, key, encoded, s.cacheTTL); err != nil {
		return fmt.Errorf("post service: write list cache: %w", err)
	}
	return nil
}

// Create stores a new post written by authorID.
func (s *PostService) Create(ctx context.Context, authorID uint, input CreatePostInput) (*models.Post, error) {
	ctx = ensureContext(ctx)

	exists, err := s.userExists(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrAuthorNotFound
	}

	post := &models.Post{
		Title:       input.Title,
		Description: input.Description,
		AuthorID:    authorID,
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		if isForeignKeyError(err) {
			s.log.Warn("author removed before post insert", zap.Uint("author_id", authorID), zap.Error(err))
		}
		return nil, fmt.Errorf("post service: create post: %w", err)
	}

	if err := s.invalidateListCache(ctx, "create"); err != nil {
		return nil, err
	}

	return s.load(ctx, post.ID)
}

// Update applies the provided fields to a post owned by actingUserID.
func (s *PostService) Update(ctx context.Context, id, actingUserID uint, input UpdatePostInput) (*models.Post, error) {
	ctx = ensureContext(ctx)

	post, err := s.ownedPost(ctx, id, actingUserID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if len(updates) == 0 {
		return s.load(ctx, post.ID)
	}

	if err := s.db.WithContext(ctx).Model(post).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("post service: update post: %w", err)
	}

	if err := s.invalidateListCache(ctx, "update"); err != nil {
		return nil, err
	}

	return s.load(ctx, post.ID)
}

// Delete removes a post owned by actingUserID.
func (s *PostService) Delete(ctx context.Context, id, actingUserID uint) error {
	ctx = ensureContext(ctx)

	post, err := s.ownedPost(ctx, id, actingUserID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(post).Error; err != nil {
		return fmt.Errorf("post service: delete post: %w", err)
	}

	return s.invalidateListCache(ctx, "delete")
}

func (s *PostService) ownedPost(ctx context.Context, id, actingUserID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Take(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("post service: load post: %w", err)
	}
	if !post.OwnedBy(actingUserID) {
		return nil, ErrPostForbidden
	}
	return &post, nil
}

func (s *PostService) load(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Author").Take(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("post service: reload post: %w", err)
	}
	return &post, nil
}

func (s *PostService) userExists(ctx context.Context, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("post service: resolve author: %w", err)
	}
	return count > 0, nil
}

func (s *PostService) queryList(ctx context.Context, opts ListPostsOptions) (*ListResult, error) {
	var total int64
	if err := s.filtered(ctx, opts.Filters).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("post service: count posts: %w", err)
	}

	var posts []models.Post
	if err := s.filtered(ctx, opts.Filters).
		Order("created_at DESC").
		Order("id DESC").
		Offset((opts.Page - 1) * opts.Limit).
		Limit(opts.Limit).
		Preload("Author").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("post service: list posts: %w", err)
	}

	result := &ListResult{Data: make([]PostView, 0, len(posts)), Total: total}
	for i := range posts {
		result.Data = append(result.Data, newPostView(&posts[i]))
	}
	return result, nil
}

func (s *PostService) filtered(ctx context.Context, filters PostFilters) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Post{})
	if filters.AuthorID != nil {
		query = query.Where("author_id = ?", *filters.AuthorID)
	}
	if filters.Title != "" {
		query = query.Where(titleContainsSQL(s.db.Dialector.Name()), filters.Title)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", filters.DateFrom.UTC())
	}
	if filters.DateTo != nil {
		query = query.Where("created_at < ?", filters.DateTo.UTC())
	}
	return query
}

// titleContainsSQL is a case-sensitive substring test. LIKE folds case on
// SQLite and MySQL, so each dialect gets its own position function.
func titleContainsSQL(dialect string) string {
	switch dialect {
	case database.DialectPostgres:
		return "strpos(title, ?) > 0"
	case database.DialectMySQL:
		return "LOCATE(?, BINARY title) > 0"
	default:
		return "instr(title, ?) > 0"
	}
}

func (s *PostService) invalidateListCache(ctx context.Context, operation string) error {
	if s.cache == nil {
		return nil
	}

	s.purgeMu.Lock()
	defer s.purgeMu.Unlock()

	s.purges++
	if err := s.cache.DeletePrefix(ctx, ListCachePrefix); err != nil {
		return fmt.Errorf("post service: invalidate list cache: %w", err)
	}
	metrics.CacheInvalidations.WithLabelValues(operation).Inc()
	s.log.Debug("list cache invalidated", zap.String("operation", operation))
	return nil
}

func normaliseListOptions(opts ListPostsOptions) (ListPostsOptions, error) {
	switch {
	case opts.Page == 0:
		opts.Page = 1
	case opts.Page < 0:
		return opts, ErrInvalidPage
	}

	switch {
	case opts.Limit == 0:
		opts.Limit = DefaultPageLimit
	case opts.Limit < 0 || opts.Limit > MaxPageLimit:
		return opts, ErrInvalidLimit
	}

	// (page-1)*limit must fit in an int offset.
	if opts.Page-1 > math.MaxInt/opts.Limit {
		return opts, ErrInvalidPage
	}

	opts.Filters.DateFrom = utcPtr(opts.Filters.DateFrom)
	opts.Filters.DateTo = utcPtr(opts.Filters.DateTo)
	return opts, nil
}

type listKeyFilters struct {
	AuthorID *uint      `json:"authorId"`
	DateFrom *time.Time `json:"dateFrom"`
	DateTo   *time.Time `json:"dateTo"`
	Title    *string    `json:"title"`
}

type listKeyParams struct {
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Filters listKeyFilters `json:"filters"`
}

// listCacheKey derives the cache key from normalised options. Absent
// filters serialise as null so they never collide with a present value.
func listCacheKey(opts ListPostsOptions) (string, error) {
	params := listKeyParams{
		Page:  opts.Page,
		Limit: opts.Limit,
		Filters: listKeyFilters{
			AuthorID: opts.Filters.AuthorID,
			DateFrom: opts.Filters.DateFrom,
			DateTo:   opts.Filters.DateTo,
		},
	}
	if opts.Filters.Title != "" {
		title := opts.Filters.Title
		params.Filters.Title = &title
	}
	return cache.Key(ListCachePrefix, params)
}

func newPostView(post *models.Post) PostView {
	return PostView{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Author: AuthorView{
			ID:    post.Author.ID,
			Email: post.Author.Email,
		},
		CreatedAt: post.CreatedAt.UTC(),
		UpdatedAt: post.UpdatedAt.UTC(),
	}
}

// normalise makes a decoded cache entry render exactly like a fresh query.
func (r *ListResult) normalise() {
	if r.Data == nil {
		r.Data = []PostView{}
	}
	for i := range r.Data {
		r.Data[i].CreatedAt = r.Data[i].CreatedAt.UTC()
		r.Data[i].UpdatedAt = r.Data[i].UpdatedAt.UTC()
	}
}
