package pipeline

import (
	"context"
	"sync"
	"time"

	inputredis "cabwatch/internal/input/redis"
	"cabwatch/internal/ledger"
	"cabwatch/internal/logger"
	"cabwatch/internal/tracker"
	"cabwatch/internal/transform/telemetry"
)

// PositionPipeline consumes raw position messages from Redis, runs each
// one through the tracking coordinator, and periodically archives newly
// appended alert records. Per-cab ordering is the tracker's concern;
// workers here only parse and dispatch.
type PositionPipeline struct {
	consumer      *inputredis.Consumer
	tracker       *tracker.Tracker
	alerts        *ledger.AlertLedger
	archive       AlertWriter
	workers       int
	batchSize     int
	flushInterval time.Duration

	archived int
}

// NewPositionPipeline creates the pipeline. archive may be nil when alert
// archiving is disabled.
func NewPositionPipeline(consumer *inputredis.Consumer, trk *tracker.Tracker, alerts *ledger.AlertLedger, archive AlertWriter, workers, batchSize int, flushInterval time.Duration) *PositionPipeline {
	return &PositionPipeline{
		consumer:      consumer,
		tracker:       trk,
		alerts:        alerts,
		archive:       archive,
		workers:       workers,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Run starts the pipeline loop and blocks until the context is cancelled.
func (p *PositionPipeline) Run(ctx context.Context) error {
	logger.Infof("Position pipeline started")

	if p.workers <= 0 {
		p.workers = 8
	}
	if p.batchSize <= 0 {
		p.batchSize = 1000
	}
	if p.flushInterval <= 0 {
		p.flushInterval = 2 * time.Second
	}

	msgCh := make(chan []byte, p.workers*4)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.workerLoop(msgCh)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.archiveLoop(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// Close releases pipeline resources.
func (p *PositionPipeline) Close() error {
	if p.archive != nil {
		if err := p.archive.Close(); err != nil {
			logger.Errorf("Failed to close alert archive: %v", err)
		}
	}
	if p.consumer != nil {
		return p.consumer.Close()
	}
	return nil
}

func (p *PositionPipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		payload, err := p.consumer.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop position message: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if payload == nil {
			continue
		}
		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}

func (p *PositionPipeline) workerLoop(in <-chan []byte) {
	for payload := range in {
		evt, err := telemetry.Parse(payload)
		if err != nil {
			logger.Warnf("Failed to parse position event: %v", err)
			continue
		}
		p.tracker.Process(evt.CabID, evt.Lat, evt.Lon)
	}
}

func (p *PositionPipeline) archiveLoop(ctx context.Context) {
	if p.archive == nil {
		return
	}
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.flushArchive(ctx)
			return
		case <-ticker.C:
			p.flushArchive(ctx)
		}
	}
}

// flushArchive appends chain records past the cursor to the archive file.
// The chain is append-only, so the cursor only moves forward.
func (p *PositionPipeline) flushArchive(ctx context.Context) {
	chain := p.alerts.Chain()
	for p.archived < len(chain) {
		batch := chain[p.archived:]
		if len(batch) > p.batchSize {
			batch = batch[:p.batchSize]
		}
		if err := p.archive.WriteAlerts(batch); err != nil {
			logger.Errorf("Failed to archive alert records: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(1 * time.Second):
			}
			continue
		}
		p.archived += len(batch)
	}
}
