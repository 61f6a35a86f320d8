package tilekit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// fetchRequest is one submitted (url, token) pair awaiting its outcome.
type fetchRequest struct {
	url      string
	token    uint64
	ctx      context.Context
	cancel   context.CancelFunc
	canceled bool // guarded by FetchManager.mu
}

// FetchStats counts requests by how they were resolved.
type FetchStats struct {
	Submitted      uint64
	CacheHits      uint64
	NetworkFetches uint64
	Successes      uint64
	Failures       uint64
	Canceled       uint64
	InFlight       int
}

func (s FetchStats) String() string {
	return fmt.Sprintf("Fetch[%d submitted, %d cache hits, %d network, %d ok, %d failed (%d canceled), %d in flight]",
		s.Submitted, s.CacheHits, s.NetworkFetches, s.Successes, s.Failures, s.Canceled, s.InFlight)
}

// FetchManager retrieves URL payloads asynchronously through a Cache and
// the network and reports exactly one outcome per submitted token to an
// OutcomeSink.
//
// Every token receives at most one outcome. A canceled request never
// receives a Success once its worker observes the cancellation; it is
// resolved with a Failure instead. An outcome already handed to the sink
// when Cancel runs is not recalled.
//
// FetchManager is safe for concurrent use.
type FetchManager struct {
	cfg    Config
	client *http.Client
	cache  Cache
	sink   OutcomeSink
	group  singleflight.Group

	baseCtx  context.Context
	stopAll  context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	requests map[uint64]*fetchRequest
	byURL    map[string]map[uint64]*fetchRequest
	closed   bool

	onFailure func(token uint64, err *FetchError)

	submitted      atomic.Uint64
	cacheHits      atomic.Uint64
	networkFetches atomic.Uint64
	successes      atomic.Uint64
	failures       atomic.Uint64
	canceled       atomic.Uint64
}

// NewFetchManager creates a manager delivering into sink. A nil cache
// selects a MemoryCache of cfg.CacheCapacityBytes.
func NewFetchManager(cfg Config, cache Cache, sink OutcomeSink) (*FetchManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: nil outcome sink", ErrInvalidConfig)
	}
	if cache == nil {
		cache = NewMemoryCache(cfg.CacheCapacityBytes)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &FetchManager{
		cfg:      cfg,
		client:   newHTTPClient(cfg),
		cache:    cache,
		sink:     sink,
		baseCtx:  ctx,
		stopAll:  cancel,
		requests: make(map[uint64]*fetchRequest),
		byURL:    make(map[string]map[uint64]*fetchRequest),
	}
	Logger().Info("fetch manager started",
		"connect_timeout", cfg.ConnectTimeout, "read_timeout", cfg.ReadTimeout,
		"dedupe", cfg.DedupeInFlight)
	return m, nil
}

// OpenCache builds the cache described by cfg: memory only, or memory in
// front of a DiskCache when CacheDir is set. A disk tier that cannot be
// opened is logged and skipped.
func OpenCache(cfg Config) Cache {
	mem := NewMemoryCache(cfg.CacheCapacityBytes)
	if cfg.CacheDir == "" {
		return mem
	}
	disk, err := OpenDiskCache(cfg.CacheDir, cfg.diskCapacity())
	if err != nil {
		Logger().Warn("disk cache disabled", "dir", cfg.CacheDir, "kind", CacheUnavailable, "err", err)
		return mem
	}
	return &TieredCache{Front: mem, Back: disk}
}

// Cache returns the cache backing this manager.
func (m *FetchManager) Cache() Cache {
	return m.cache
}

// OnFailure registers a diagnostics hook called with the classified error
// of every failed request, before its Failure outcome is delivered. The
// hook runs on a worker goroutine.
func (m *FetchManager) OnFailure(fn func(token uint64, err *FetchError)) {
	m.mu.Lock()
	m.onFailure = fn
	m.mu.Unlock()
}

// Submit starts retrieving url and returns immediately. Exactly one of
// Success or Failure is later delivered for token unless Submit returns an
// error, in which case nothing is delivered.
func (m *FetchManager) Submit(url string, token uint64) error {
	if url == "" {
		return ErrEmptyURL
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if _, dup := m.requests[token]; dup {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrDuplicateToken, token)
	}
	ctx, cancel := context.WithCancel(m.baseCtx)
	req := &fetchRequest{url: url, token: token, ctx: ctx, cancel: cancel}
	m.requests[token] = req
	peers := m.byURL[url]
	if peers == nil {
		peers = make(map[uint64]*fetchRequest)
		m.byURL[url] = peers
	}
	peers[token] = req
	m.wg.Add(1)
	m.mu.Unlock()

	m.submitted.Add(1)
	go m.run(req)
	return nil
}

// Cancel aborts every outstanding request for url. Canceled requests are
// resolved with a Failure. No-op when nothing is outstanding for url.
func (m *FetchManager) Cancel(url string) {
	m.mu.Lock()
	peers := m.byURL[url]
	for _, req := range peers {
		req.canceled = true
		req.cancel()
	}
	m.mu.Unlock()

	if len(peers) > 0 {
		if m.cfg.DedupeInFlight {
			m.group.Forget(url)
		}
		Logger().Debug("fetch canceled", "url", url, "requests", len(peers))
	}
}

// CancelAll aborts every outstanding request.
func (m *FetchManager) CancelAll() {
	m.mu.Lock()
	for _, req := range m.requests {
		req.canceled = true
		req.cancel()
		if m.cfg.DedupeInFlight {
			m.group.Forget(req.url)
		}
	}
	m.mu.Unlock()
}

// InFlight returns the number of requests still owed an outcome.
func (m *FetchManager) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Stats returns request counters.
func (m *FetchManager) Stats() FetchStats {
	return FetchStats{
		Submitted:      m.submitted.Load(),
		CacheHits:      m.cacheHits.Load(),
		NetworkFetches: m.networkFetches.Load(),
		Successes:      m.successes.Load(),
		Failures:       m.failures.Load(),
		Canceled:       m.canceled.Load(),
		InFlight:       m.InFlight(),
	}
}

// Close rejects further submits, cancels everything outstanding, and waits
// for all workers to deliver their outcomes.
func (m *FetchManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, req := range m.requests {
		req.canceled = true
	}
	m.mu.Unlock()

	m.stopAll()
	m.wg.Wait()
	m.client.CloseIdleConnections()
	Logger().Info("fetch manager closed", "stats", m.Stats().String())
	return nil
}

// run resolves one request on its own goroutine.
func (m *FetchManager) run(req *fetchRequest) {
	defer m.wg.Done()

	if data, ok := m.lookup(req.url); ok {
		m.cacheHits.Add(1)
		Logger().Debug("cache hit", "url", req.url, "token", req.token, "bytes", len(data))
		m.finish(req, data, nil)
		return
	}

	data, ferr := m.fetch(req)
	if ferr == nil {
		m.store(req.url, data)
	}
	m.finish(req, data, ferr)
}

// lookup consults the cache. Tier failures degrade to a miss.
func (m *FetchManager) lookup(url string) ([]byte, bool) {
	data, err := m.cache.Get(url)
	if err == nil {
		return data, true
	}
	if !errors.Is(err, ErrCacheMiss) {
		Logger().Warn("cache read failed", "url", url, "kind", CacheUnavailable, "err", err)
	}
	return nil, false
}

func (m *FetchManager) store(url string, data []byte) {
	err := m.cache.Put(url, data)
	switch {
	case err == nil:
	case errors.Is(err, ErrEntryTooLarge):
		Logger().Debug("response not cached", "url", url, "bytes", len(data), "err", err)
	default:
		Logger().Warn("cache write failed", "url", url, "kind", CacheUnavailable, "err", err)
	}
}

// fetch retrieves req.url from the network, sharing one attempt between
// concurrent requests for the same URL when dedupe is enabled.
func (m *FetchManager) fetch(req *fetchRequest) ([]byte, *FetchError) {
	if !m.cfg.DedupeInFlight {
		return m.attempt(req.ctx, req.url)
	}

	type result struct {
		data []byte
		ferr *FetchError
	}
	ch := m.group.DoChan(req.url, func() (any, error) {
		data, ferr := m.attempt(req.ctx, req.url)
		return result{data: data, ferr: ferr}, nil
	})
	select {
	case r := <-ch:
		res := r.Val.(result)
		return res.data, res.ferr
	case <-req.ctx.Done():
		return nil, &FetchError{Kind: Canceled, URL: req.url, Err: req.ctx.Err()}
	}
}

func (m *FetchManager) attempt(ctx context.Context, url string) ([]byte, *FetchError) {
	m.networkFetches.Add(1)
	reqID := uuid.NewString()
	log := Logger().With("req_id", reqID, "url", url)
	log.Debug("network fetch started")

	data, ferr := fetchBody(ctx, m.client, url, m.cfg.UserAgent, m.cfg.ReadTimeout)
	if ferr != nil {
		log.Debug("network fetch failed", "kind", ferr.Kind, "err", ferr)
		return nil, ferr
	}
	log.Debug("network fetch finished", "bytes", len(data))
	return data, nil
}

// finish delivers the single outcome for req. Later calls for the same
// request are ignored.
func (m *FetchManager) finish(req *fetchRequest, data []byte, ferr *FetchError) {
	m.mu.Lock()
	if cur, ok := m.requests[req.token]; !ok || cur != req {
		m.mu.Unlock()
		return
	}
	delete(m.requests, req.token)
	if peers := m.byURL[req.url]; peers != nil {
		delete(peers, req.token)
		if len(peers) == 0 {
			delete(m.byURL, req.url)
		}
	}
	canceled := req.canceled
	hook := m.onFailure
	m.mu.Unlock()
	req.cancel()

	if ferr == nil && canceled {
		ferr = &FetchError{Kind: Canceled, URL: req.url, Err: context.Canceled}
	}
	if ferr == nil {
		m.successes.Add(1)
		// The cache and dedupe peers share data; each token gets its own copy.
		m.sink.Deliver(FetchOutcome{Kind: OutcomeSuccess, Token: req.token, URL: req.url, Data: bytes.Clone(data)})
		return
	}

	m.failures.Add(1)
	if ferr.Kind == Canceled {
		m.canceled.Add(1)
		Logger().Debug("fetch resolved as canceled", "url", req.url, "token", req.token)
	} else {
		Logger().Warn("fetch failed", "url", req.url, "token", req.token, "kind", ferr.Kind, "err", ferr)
	}
	if hook != nil {
		hook(req.token, ferr)
	}
	m.sink.Deliver(FetchOutcome{Kind: OutcomeFailure, Token: req.token, URL: req.url})
}
