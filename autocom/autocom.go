package autocom

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"roadtrip/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

const (
	LocalitiesKey = "autocomplete:localities"
	DefaultLimit  = 10
	maxLimit      = 50
)

// Index suggests place names by case-insensitive prefix.
type Index interface {
	Add(ctx context.Context, names ...string) error
	Suggest(ctx context.Context, prefix string, limit int64) ([]string, error)
}

// sep sorts below every printable byte so "lyon" precedes "lyon 2e".
const sep = "\x00"

// member stores the folded name for lexical ordering with the display name after sep.
func member(name string) string {
	return strings.ToLower(name) + sep + name
}

func display(m string) string {
	if _, name, ok := strings.Cut(m, sep); ok {
		return name
	}
	return m
}

func clean(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || strings.Contains(n, sep) || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// RedisIndex keeps names in a zero-score sorted set queried with ZRANGEBYLEX.
type RedisIndex struct {
	client *redis.Client
	key    string
}

func NewRedisIndex(client *redis.Client, key string) *RedisIndex {
	return &RedisIndex{client: client, key: key}
}

func (x *RedisIndex) Add(ctx context.Context, names ...string) error {
	names = clean(names)
	if len(names) == 0 {
		return nil
	}
	zs := make([]redis.Z, 0, len(names))
	for _, n := range names {
		zs = append(zs, redis.Z{Score: 0, Member: member(n)})
	}
	if err := x.client.ZAdd(ctx, x.key, zs...).Err(); err != nil {
		return fmt.Errorf("failed to add names to autocomplete: %w", err)
	}
	return nil
}

func (x *RedisIndex) Suggest(ctx context.Context, prefix string, limit int64) ([]string, error) {
	p := strings.ToLower(strings.TrimSpace(prefix))
	results, err := x.client.ZRangeByLex(ctx, x.key, &redis.ZRangeBy{
		Min:    "[" + p,
		Max:    "[" + p + "\xff",
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to search autocomplete: %w", err)
	}
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, display(r))
	}
	return out, nil
}

// MemoryIndex mirrors RedisIndex ordering in process.
type MemoryIndex struct {
	mu      sync.RWMutex
	members []string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (x *MemoryIndex) Add(_ context.Context, names ...string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, n := range clean(names) {
		m := member(n)
		i := sort.SearchStrings(x.members, m)
		if i < len(x.members) && x.members[i] == m {
			continue
		}
		x.members = append(x.members, "")
		copy(x.members[i+1:], x.members[i:])
		x.members[i] = m
	}
	return nil
}

func (x *MemoryIndex) Suggest(_ context.Context, prefix string, limit int64) ([]string, error) {
	p := strings.ToLower(strings.TrimSpace(prefix))
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := []string{}
	for i := sort.SearchStrings(x.members, p); i < len(x.members); i++ {
		if !strings.HasPrefix(x.members[i], p) || int64(len(out)) >= limit {
			break
		}
		out = append(out, display(x.members[i]))
	}
	return out, nil
}

type Handler struct {
	index Index
}

func NewHandler(index Index) *Handler {
	return &Handler{index: index}
}

// GET /api/db/localities?q=ly&limit=10
func (h *Handler) SuggestLocalities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	prefix := strings.TrimSpace(q.Get("q"))
	if prefix == "" {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"localities": []string{}})
		return
	}

	limit := int64(DefaultLimit)
	if q.Get("limit") != "" {
		pg, err := utils.ParsePagination(q)
		if err != nil {
			utils.RespondWithAppError(w, err)
			return
		}
		limit = int64(min(pg.Limit, maxLimit))
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names, err := h.index.Suggest(ctx, prefix, limit)
	if err != nil {
		utils.RespondWithAppError(w, utils.StoreError("Error fetching locality suggestions", err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"localities": names})
}
