package miner

import (
	"context"

	"go.uber.org/zap"

	"github.com/tinytelemetry/logmine/internal/cluster"
	"github.com/tinytelemetry/logmine/internal/linepool"
	"github.com/tinytelemetry/logmine/internal/logsource"
	"github.com/tinytelemetry/logmine/internal/pattern"
)

// worker clusters the lines it pulls from a shared reader. Everything except
// the reader is private to the worker's goroutine.
type worker struct {
	id     int
	src    *logsource.SharedReader
	pool   *linepool.Pool
	clus   *cluster.Clusterer
	chunk  int
	tries  int
	logger *zap.Logger
	prog   progress

	fills  int
	topUps int
}

func newWorker(id int, src *logsource.SharedReader, tok *pattern.Tokenizer, cfg Config) *worker {
	return &worker{
		id:     id,
		src:    src,
		pool:   linepool.New(cfg.ChunkSize),
		clus:   cluster.New(tok, cfg.Options),
		chunk:  cfg.ChunkSize,
		tries:  cfg.RefillAttempts,
		logger: cfg.Logger,
		prog:   progress{counter: cfg.Progress},
	}
}

// run processes lines until the reader is drained and returns the worker's
// unfiltered clusters. With no live lines left the worker waits for the
// reader lock; while lines remain it only tops up opportunistically, so a
// worker busy on a slow chunk never holds up the others.
func (w *worker) run(ctx context.Context) (workerResult, error) {
	attempts := 0
	for {
		ref, ok := w.pool.TakeLive()
		if !ok {
			if err := ctx.Err(); err != nil {
				return workerResult{}, err
			}
			n, err := w.src.Fill(w.pool, w.chunk)
			if err != nil {
				return workerResult{}, err
			}
			if n == 0 {
				break
			}
			w.fills++
			attempts = 0
			continue
		}

		w.clus.ProcessLine(string(ref.Bytes()))
		ref.Release()
		w.prog.tick()

		if attempts < w.tries && w.pool.Live() <= w.chunk/2 && !w.src.Exhausted() {
			attempts++
			n, locked, err := w.src.TryFill(w.pool, w.pool.Dead())
			if err != nil {
				return workerResult{}, err
			}
			if locked && n > 0 {
				w.topUps++
			}
		}
	}
	w.prog.flush()

	clusters := w.clus.TakeAll()
	w.logger.Debug("worker finished",
		zap.Int("worker", w.id),
		zap.Int64("lines", w.prog.lines),
		zap.Int("clusters", len(clusters)),
		zap.Int("fills", w.fills),
		zap.Int("top_ups", w.topUps))

	return workerResult{clusters: clusters, lines: w.prog.lines}, nil
}
