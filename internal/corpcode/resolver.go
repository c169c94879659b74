package corpcode

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"opendart/internal/platform/metrics"
)

const defaultSearchCacheSize = 256

// snapshot is an immutable loaded directory plus its scan order.
type snapshot struct {
	dir *Directory
	// codes is every corp code in ascending order; lower holds the lowercased
	// name at the same index.
	codes []string
	lower []string
}

func newSnapshot(dir *Directory) *snapshot {
	codes := make([]string, 0, len(dir.ByCorpCode))
	for code := range dir.ByCorpCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	lower := make([]string, len(codes))
	for i, code := range codes {
		lower[i] = strings.ToLower(dir.ByCorpCode[code].Name)
	}
	return &snapshot{dir: dir, codes: codes, lower: lower}
}

type ResolverConfig struct {
	Store           *Store
	Logger          logrus.FieldLogger
	Metrics         *metrics.Metrics
	SearchCacheSize int
}

// Resolver answers identifier queries against the directory file. The file
// is read on first use; a successful load is kept for the life of the
// Resolver and a failed one is retried on the next call.
type Resolver struct {
	store   *Store
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	snap   atomic.Pointer[snapshot]
	group  singleflight.Group
	search *lru.Cache[string, []SearchResult]
}

func NewResolver(cfg ResolverConfig) *Resolver {
	size := cfg.SearchCacheSize
	if size <= 0 {
		size = defaultSearchCacheSize
	}
	cache, err := lru.New[string, []SearchResult](size)
	if err != nil {
		panic(err)
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		store:   cfg.Store,
		log:     log.WithField("component", "corpcode"),
		metrics: cfg.Metrics,
		search:  cache,
	}
}

// NewStaticResolver serves a directory already in memory.
func NewStaticResolver(dir *Directory) *Resolver {
	r := NewResolver(ResolverConfig{Store: NewStore(nil)})
	r.snap.Store(newSnapshot(dir))
	return r
}

func (r *Resolver) load(ctx context.Context) (*snapshot, error) {
	if s := r.snap.Load(); s != nil {
		return s, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err, _ := r.group.Do("load", func() (any, error) {
		if s := r.snap.Load(); s != nil {
			return s, nil
		}
		dir, path, err := r.store.Load()
		if err != nil {
			r.log.WithError(err).Warn("company directory unavailable")
			return nil, err
		}
		s := newSnapshot(dir)
		r.snap.Store(s)
		st := dir.Stats()
		r.metrics.SetDirectorySize(st.Total, st.Listed)
		r.log.WithFields(logrus.Fields{"path": path, "companies": st.Total, "listed": st.Listed}).Info("company directory loaded")
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

// Resolve returns the corp code for a company name, 6-digit stock code or
// 8-digit corp code. Corp codes are returned as given without a directory
// lookup. A name that is not an exact key falls back to a case-insensitive
// substring scan in ascending corp code order, preferring the first listed
// match over the first match overall.
func (r *Resolver) Resolve(ctx context.Context, query string) (code string, err error) {
	q := strings.TrimSpace(query)
	kind := Classify(q)
	defer func() { r.metrics.ObserveResolution(kind.String(), resolutionOutcome(err)) }()

	if q == "" {
		return "", &NotFoundError{Query: q, Kind: kind}
	}
	if kind == QueryCorpCode {
		return q, nil
	}
	s, err := r.load(ctx)
	if err != nil {
		return "", err
	}
	if kind == QueryStockCode {
		if code, ok := s.dir.ByStockCode[q]; ok {
			return code, nil
		}
		return "", &NotFoundError{Query: q, Kind: kind}
	}
	if code, ok := s.dir.ByName[q]; ok {
		return code, nil
	}

	needle := strings.ToLower(q)
	fallback := ""
	for i, name := range s.lower {
		if !strings.Contains(name, needle) {
			continue
		}
		code := s.codes[i]
		if s.dir.ByCorpCode[code].StockCode != "" {
			return code, nil
		}
		if fallback == "" {
			fallback = code
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", &NotFoundError{Query: q, Kind: kind}
}

// Search returns up to MaxSearchResults entries whose name contains query
// case-insensitively: listed before unlisted, then by name, then by corp code.
func (r *Resolver) Search(ctx context.Context, query string) ([]SearchResult, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, &NotFoundError{}
	}
	if hit, ok := r.search.Get(needle); ok {
		return append([]SearchResult(nil), hit...), nil
	}
	s, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []SearchResult
	for i, name := range s.lower {
		if !strings.Contains(name, needle) {
			continue
		}
		code := s.codes[i]
		info := s.dir.ByCorpCode[code]
		out = append(out, SearchResult{CorpCode: code, CorpName: info.Name, StockCode: info.StockCode})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.StockCode != "") != (b.StockCode != "") {
			return a.StockCode != ""
		}
		if a.CorpName != b.CorpName {
			return a.CorpName < b.CorpName
		}
		return a.CorpCode < b.CorpCode
	})
	if len(out) > MaxSearchResults {
		out = out[:MaxSearchResults]
	}
	r.search.Add(needle, out)
	return append([]SearchResult(nil), out...), nil
}

// Lookup returns the directory record for a corp code.
func (r *Resolver) Lookup(ctx context.Context, corpCode string) (CompanyInfo, bool, error) {
	s, err := r.load(ctx)
	if err != nil {
		return CompanyInfo{}, false, err
	}
	info, ok := s.dir.ByCorpCode[strings.TrimSpace(corpCode)]
	return info, ok, nil
}

// Stats reports the loaded directory size, loading it if needed.
func (r *Resolver) Stats(ctx context.Context) (BuildStats, error) {
	s, err := r.load(ctx)
	if err != nil {
		return BuildStats{}, err
	}
	return s.dir.Stats(), nil
}

func resolutionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsNotFound(err):
		return "not_found"
	case IsUnavailable(err):
		return "unavailable"
	default:
		return "error"
	}
}
