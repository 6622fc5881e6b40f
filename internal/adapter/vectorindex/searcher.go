package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"caselaw-rag/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

const queryCacheSize = 256

// Searcher serves similarity queries against the loaded artifact. It is
// constructed once at process start and shared; the artifact pair and the
// embedding client are loaded lazily on first use, serialized by sync.Once,
// and held for the process lifetime. A rebuilt artifact is only picked up
// by Reload or a restart.
type Searcher struct {
	encoder domain.VectorEncoder
	dir     string
	logger  *slog.Logger

	mu      sync.Mutex
	once    *sync.Once
	index   *Index
	loadErr error

	queryCache *lru.Cache[string, []float32]
}

// NewSearcher creates a searcher over the artifact directory. The index is
// not touched until the first Search call.
func NewSearcher(encoder domain.VectorEncoder, dir string, logger *slog.Logger) (*Searcher, error) {
	cache, err := lru.New[string, []float32](queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	return &Searcher{
		encoder:    encoder,
		dir:        dir,
		logger:     logger,
		once:       new(sync.Once),
		queryCache: cache,
	}, nil
}

// Search embeds the query text and scans the index. It returns
// domain.ErrIndexNotBuilt when no artifact exists.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	ix, err := s.load()
	if err != nil {
		return nil, err
	}

	vec, ok := s.queryCache.Get(query)
	if !ok {
		vectors, err := s.encoder.Encode(ctx, []string{query})
		if err != nil {
			return nil, fmt.Errorf("failed to encode query: %w", err)
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("encoder returned %d vectors for one query", len(vectors))
		}
		vec = vectors[0]
		Normalize(vec)
		s.queryCache.Add(query, vec)
	}

	return ix.Search(vec, k)
}

// Reload drops the cached artifact so the next Search reads the files
// again. Call it after an offline build completes.
func (s *Searcher) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.once = new(sync.Once)
	s.index = nil
	s.loadErr = nil
	s.queryCache.Purge()
}

func (s *Searcher) load() (*Index, error) {
	s.mu.Lock()
	once := s.once
	s.mu.Unlock()

	once.Do(func() {
		ix, err := Load(s.dir)
		s.mu.Lock()
		s.index, s.loadErr = ix, err
		s.mu.Unlock()
		if err == nil {
			s.logger.Info("index_loaded",
				slog.Int("vector_count", ix.Len()),
				slog.Int("dimension", ix.Dim),
				slog.String("dir", s.dir),
			)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index, s.loadErr
}

var _ domain.VectorSearcher = (*Searcher)(nil)
