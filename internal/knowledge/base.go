// Package knowledge answers general questions from a store of business facts.
// Lookups are keyword-ranked over the active items, with the full item set
// cached in Redis between writes.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/config"
	"github.com/callwise/voice-scheduler/internal/domain"
	"github.com/callwise/voice-scheduler/internal/repository"
	"github.com/callwise/voice-scheduler/pkg/util"
)

var nonWordExpr = regexp.MustCompile(`[^\w\s]`)

// stopWords are excluded from keyword ranking.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "is": {}, "in": {}, "to": {}, "a": {},
	"of": {}, "for": {}, "with": {}, "on": {}, "at": {},
}

// Answer is a ranked knowledge match.
type Answer struct {
	Item  domain.KnowledgeItem `json:"item"`
	Score int                  `json:"score"`
}

// Base serves knowledge queries and manages the item store.
type Base struct {
	repo   repository.KnowledgeRepository
	cache  *redis.Client
	cfg    config.KnowledgeConfig
	logger *zap.Logger
}

// NewBase instantiates the knowledge base. cache may be nil, in which case
// every query hits the database.
func NewBase(repo repository.KnowledgeRepository, cache *redis.Client, cfg config.KnowledgeConfig, logger *zap.Logger) *Base {
	return &Base{repo: repo, cache: cache, cfg: cfg, logger: logger}
}

// Query ranks active items against the question and returns up to maxResults
// matches, best first. An empty slice means the knowledge base has nothing
// relevant.
func (b *Base) Query(ctx context.Context, question string, maxResults int) ([]Answer, error) {
	if maxResults <= 0 {
		maxResults = 3
	}
	items, err := b.activeItems(ctx)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	questionKeywords := extractKeywords(question)
	var answers []Answer
	for _, item := range items {
		score := overlap(questionKeywords, extractKeywords(item.Title+" "+item.Content))
		if score > 0 {
			answers = append(answers, Answer{Item: item, Score: score})
		}
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].Score > answers[j].Score })
	if len(answers) > maxResults {
		answers = answers[:maxResults]
	}
	return answers, nil
}

// AddItem stores a new active item and drops the cache.
func (b *Base) AddItem(ctx context.Context, title, content, category string, tags []string) (*domain.KnowledgeItem, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, util.NewValidationError("title and content are required", nil)
	}
	item := &domain.KnowledgeItem{
		ID:       uuid.NewString(),
		Title:    title,
		Content:  content,
		Category: category,
		Tags:     tags,
		Version:  1,
		IsActive: true,
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if err := b.repo.Create(ctx, item); err != nil {
		return nil, util.NewInternalError(err)
	}
	b.invalidate(ctx)
	return item, nil
}

// UpdateItem applies the non-empty fields, bumps the version and drops the
// cache. Nil tags means leave tags untouched.
func (b *Base) UpdateItem(ctx context.Context, id, title, content, category string, tags []string) (*domain.KnowledgeItem, error) {
	item, err := b.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("knowledge item", map[string]any{"id": id})
		}
		return nil, util.NewInternalError(err)
	}

	if title != "" {
		item.Title = title
	}
	if content != "" {
		item.Content = content
	}
	if category != "" {
		item.Category = category
	}
	if tags != nil {
		item.Tags = tags
	}
	item.Version++

	if err := b.repo.Update(ctx, item); err != nil {
		return nil, util.NewInternalError(err)
	}
	b.invalidate(ctx)
	return item, nil
}

// DeleteItem soft-deletes by marking the item inactive.
func (b *Base) DeleteItem(ctx context.Context, id string) error {
	ok, err := b.repo.Deactivate(ctx, id)
	if err != nil {
		return util.NewInternalError(err)
	}
	if !ok {
		return util.NewNotFound("knowledge item", map[string]any{"id": id})
	}
	b.invalidate(ctx)
	return nil
}

func (b *Base) cacheKey() string {
	return fmt.Sprintf("%s:all", b.cfg.KeyPrefix)
}

func (b *Base) activeItems(ctx context.Context) ([]domain.KnowledgeItem, error) {
	if b.cache != nil {
		if raw, err := b.cache.Get(ctx, b.cacheKey()).Bytes(); err == nil {
			var items []domain.KnowledgeItem
			if err := json.Unmarshal(raw, &items); err == nil {
				return items, nil
			}
			// Corrupt cache entries fall through to the database.
		} else if !errors.Is(err, redis.Nil) {
			b.logger.Warn("knowledge cache read failed", zap.Error(err))
		}
	}

	items, err := b.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := b.cache.Set(ctx, b.cacheKey(), raw, b.cfg.TTL()).Err(); err != nil {
				b.logger.Warn("knowledge cache write failed", zap.Error(err))
			}
		}
	}
	return items, nil
}

func (b *Base) invalidate(ctx context.Context) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Del(ctx, b.cacheKey()).Err(); err != nil {
		b.logger.Warn("knowledge cache invalidation failed", zap.Error(err))
	}
}

func extractKeywords(text string) []string {
	text = nonWordExpr.ReplaceAllString(strings.ToLower(text), " ")
	var keywords []string
	for _, word := range strings.Fields(text) {
		if len(word) <= 1 {
			continue
		}
		if _, skip := stopWords[word]; skip {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

func overlap(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	count := 0
	for _, w := range b {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := set[w]; ok {
			count++
		}
	}
	return count
}
