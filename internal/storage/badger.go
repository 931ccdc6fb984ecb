package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/storage/codec"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: badger store closed")

var sessionKeyPrefix = []byte("sess/")

// BadgerStore is a session backend on an embedded Badger database.
// Expiry uses Badger's per-entry TTL.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	codec  *codec.Codec
	logger logger.Logger
	closed atomic.Bool

	lastGC   atomic.Int64 // Unix milliseconds
	gcRounds atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBadgerStore opens (or creates) the database at cfg.Dir.
func NewBadgerStore(cfg BadgerConfig, c *codec.Codec, log logger.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" {
		return nil, errors.New("badger: dir is required")
	}
	opts := badger.DefaultOptions(cfg.Dir)
	return openBadger(opts, cfg, c, log)
}

// NewBadgerInMemory opens a Badger database without files, for tests.
func NewBadgerInMemory(c *codec.Codec, log logger.Logger) (*BadgerStore, error) {
	cfg := DefaultBadgerConfig()
	cfg.Dir = ""
	cfg.GCInterval = 0
	return openBadger(badger.DefaultOptions("").WithInMemory(true), cfg, c, log)
}

func openBadger(opts badger.Options, cfg BadgerConfig, c *codec.Codec, log logger.Logger) (*BadgerStore, error) {
	if log == nil {
		log = logger.Discard()
	}
	if c == nil {
		c = codec.New(nil)
	}

	opts.Logger = &badgerLogger{logger: log.With("component", "badger")}
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 && !opts.InMemory {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		codec:  c,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !opts.InMemory {
		go s.gcLoop()
	} else {
		close(s.doneCh)
	}

	log.Info("badger session store opened",
		"dir", cfg.Dir,
		"in_memory", opts.InMemory,
		"sealed", c.Sealed(),
		"gc_interval", cfg.GCInterval)

	return s, nil
}

func sessionKey(id string) []byte {
	return append(append([]byte{}, sessionKeyPrefix...), id...)
}

// Load fetches and decodes a session. Expired entries are invisible.
func (s *BadgerStore) Load(_ context.Context, id string) (*domain.Session, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("badger: get: %w", err)
	}

	return s.codec.Decode(id, raw)
}

// Save writes sess. A non-positive ttl keeps it until deleted.
func (s *BadgerStore) Save(_ context.Context, sess *domain.Session, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}

	raw, err := s.codec.Encode(sess)
	if err != nil {
		return err
	}

	entry := badger.NewEntry(sessionKey(sess.ID), raw)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return fmt.Errorf("badger: set: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *BadgerStore) Delete(_ context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		key := sessionKey(id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("badger: delete: %w", err)
	}
	return nil
}

// Count walks the session keys without fetching values.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = sessionKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if n%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger: count: %w", err)
	}
	return n, nil
}

// GC runs value-log garbage collection until nothing is left to rewrite
// and returns the number of rewritten log files.
func (s *BadgerStore) GC() (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	start := time.Now()
	rounds := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rounds, fmt.Errorf("badger: gc: %w", err)
		}
		rounds++
	}

	s.lastGC.Store(time.Now().UnixMilli())
	s.gcRounds.Add(uint64(rounds))

	s.logger.Debug("badger gc completed",
		"rewritten_files", rounds,
		"elapsed", time.Since(start))

	return rounds, nil
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	s.logger.Info("badger session store closed")
	return nil
}

func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.GC(); err != nil {
				s.logger.Error("badger auto gc failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// Collectors returns gauges describing the database on disk.
func (s *BadgerStore) Collectors() []prometheus.Collector {
	opts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace: "tokguard",
			Subsystem: "badger",
			Name:      name,
			Help:      help,
		}
	}

	return []prometheus.Collector{
		prometheus.NewGaugeFunc(opts("lsm_size_bytes", "Badger LSM tree size in bytes."), func() float64 {
			lsm, _ := s.db.Size()
			return float64(lsm)
		}),
		prometheus.NewGaugeFunc(opts("value_log_size_bytes", "Badger value log size in bytes."), func() float64 {
			_, vlog := s.db.Size()
			return float64(vlog)
		}),
		prometheus.NewGaugeFunc(opts("last_gc_timestamp_seconds", "Unix time of the last value log GC."), func() float64 {
			return float64(s.lastGC.Load()) / 1000.0
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "tokguard",
			Subsystem: "badger",
			Name:      "gc_rewrites_total",
			Help:      "Value log files rewritten by GC.",
		}, func() float64 {
			return float64(s.gcRounds.Load())
		}),
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
