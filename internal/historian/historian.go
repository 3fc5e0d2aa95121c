// Package historian drains game action records from the queue and persists them in batches.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/bluff/internal/cache"
	log "github.com/sirupsen/logrus"
)

// maxFlushAttempts is how many times a batch is retried whole before its records are saved one by
// one and the ones that still fail are dropped.
const maxFlushAttempts = 3

// popTimeout bounds each blocking pop so that flush ticks and cancellation are observed.
const popTimeout = time.Second

// Source yields queued records.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (cache.GameActionRecord, bool, error)
}

// Sink persists a batch of records.
type Sink interface {
	SaveActions(ctx context.Context, records []cache.GameActionRecord) error
}

// Service batches records from a Source into a Sink. A batch is flushed when it reaches the batch
// size, on every flush interval, and once more on shutdown.
type Service struct {
	src        Source
	sink       Sink
	batchSize  int
	flushDelay time.Duration

	batchMu  sync.Mutex
	batch    []cache.GameActionRecord
	failures int
}

func New(src Source, sink Sink, batchSize int, flushDelay time.Duration) *Service {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Service{
		src:        src,
		sink:       sink,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		batch:      make([]cache.GameActionRecord, 0, batchSize),
	}
}

// Run consumes until ctx is cancelled, then flushes what is left.
func (hs *Service) Run(ctx context.Context) {
	log.Info("historian started")
	defer log.Info("historian stopped")

	var tick <-chan time.Time
	if hs.flushDelay > 0 {
		ticker := time.NewTicker(hs.flushDelay)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			hs.Flush(flushCtx)
			cancel()
			return
		case <-tick:
			hs.Flush(ctx)
		default:
			rec, ok, err := hs.src.Pop(ctx, popTimeout)
			if err != nil {
				if ctx.Err() == nil {
					log.Errorf("historian pop: %v", err)
					time.Sleep(popTimeout)
				}
				continue
			}
			if ok {
				hs.append(ctx, rec)
			}
		}
	}
}

func (hs *Service) append(ctx context.Context, rec cache.GameActionRecord) {
	hs.batchMu.Lock()
	hs.batch = append(hs.batch, rec)
	full := len(hs.batch) >= hs.batchSize
	hs.batchMu.Unlock()
	if full {
		hs.Flush(ctx)
	}
}

// Flush writes the pending batch. A failed batch is put back in front of newer records and retried
// on the next flush; after maxFlushAttempts failures its records are written individually and any
// record that still fails is dropped.
func (hs *Service) Flush(ctx context.Context) {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	pending := hs.batch
	hs.batch = make([]cache.GameActionRecord, 0, hs.batchSize)
	hs.batchMu.Unlock()

	err := hs.sink.SaveActions(ctx, pending)

	hs.batchMu.Lock()
	if err == nil {
		hs.failures = 0
		hs.batchMu.Unlock()
		log.Debugf("flushed %d actions", len(pending))
		return
	}
	hs.failures++
	if hs.failures < maxFlushAttempts {
		hs.batch = append(pending, hs.batch...)
		hs.batchMu.Unlock()
		log.Errorf("flushing %d actions (attempt %d): %v", len(pending), hs.failures, err)
		return
	}
	hs.failures = 0
	hs.batchMu.Unlock()

	log.Errorf("flushing %d actions failed %d times, saving them one by one: %v", len(pending), maxFlushAttempts, err)
	hs.saveEach(ctx, pending)
}

func (hs *Service) saveEach(ctx context.Context, records []cache.GameActionRecord) {
	dropped := 0
	for _, rec := range records {
		if err := hs.sink.SaveActions(ctx, []cache.GameActionRecord{rec}); err != nil {
			dropped++
			log.WithFields(log.Fields{"game": rec.GameID, "index": rec.ActionIndex}).Errorf("dropping action: %v", err)
		}
	}
	if dropped > 0 {
		log.Warnf("dropped %d of %d actions", dropped, len(records))
	}
}

// Pending returns the number of records waiting to be flushed.
func (hs *Service) Pending() int {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	return len(hs.batch)
}
