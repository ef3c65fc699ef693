// Package miner runs the clusterer over a line source, either on the calling
// goroutine or across a group of workers that share one reader, and folds the
// per-worker results into a single cluster list.
package miner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/klauspost/cpuid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/logmine/internal/cluster"
	"github.com/tinytelemetry/logmine/internal/logsource"
	"github.com/tinytelemetry/logmine/internal/pattern"
)

const (
	DefaultChunkSize      = 1024
	DefaultRefillAttempts = 4

	// progressBatch is how many lines a worker processes between updates of
	// the shared progress counter.
	progressBatch = 256
)

// Config controls a mining run.
type Config struct {
	Options   cluster.Options
	Separator string

	// Jobs is the number of workers. 0 selects DefaultJobs.
	Jobs int
	// ChunkSize is the number of line buffers each worker owns and the
	// largest run of lines it takes from the shared reader at once.
	ChunkSize int
	// RefillAttempts bounds the non-blocking top-ups a worker tries per chunk
	// once half of it is processed. 0 disables them.
	RefillAttempts int

	// Progress, when set, is incremented with the number of lines processed.
	Progress *atomic.Int64
	Logger   *zap.Logger
}

// DefaultConfig returns the engine defaults with an automatic job count.
func DefaultConfig() Config {
	return Config{
		Options:        cluster.DefaultOptions(),
		Separator:      pattern.DefaultSeparator,
		ChunkSize:      DefaultChunkSize,
		RefillAttempts: DefaultRefillAttempts,
	}
}

// Result is the outcome of a run.
type Result struct {
	Clusters []cluster.Cluster
	Lines    int64
}

// DefaultJobs is the number of physical cores, or the logical CPU count when
// the topology is unknown.
func DefaultJobs() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func (c Config) normalize() Config {
	if c.Jobs <= 0 {
		c.Jobs = DefaultJobs()
	}
	if c.ChunkSize < 1 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.RefillAttempts < 0 {
		c.RefillAttempts = 0
	}
	if c.Options.MinMembers < 1 {
		c.Options.MinMembers = cluster.DefaultMinMembers
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Run clusters every line of r. Clusters with fewer than MinMembers members
// are dropped after all workers have been reduced. On a read error nothing is
// returned but the error.
func Run(ctx context.Context, r io.Reader, cfg Config) (Result, error) {
	cfg = cfg.normalize()
	tok, err := pattern.NewTokenizer(cfg.Separator)
	if err != nil {
		return Result{}, err
	}
	if cfg.Jobs == 1 {
		return runSingle(ctx, r, tok, cfg)
	}
	return runParallel(ctx, r, tok, cfg)
}

func runSingle(ctx context.Context, r io.Reader, tok *pattern.Tokenizer, cfg Config) (Result, error) {
	start := time.Now()
	lr := logsource.NewLineReader(r)
	c := cluster.New(tok, cfg.Options)
	prog := progress{counter: cfg.Progress}

	var buf []byte
	for {
		line, err := lr.ReadLine(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read input: %w", err)
		}
		c.ProcessLine(string(line))
		buf = line

		if prog.tick() {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
	}
	prog.flush()

	cfg.Logger.Debug("clustering finished",
		zap.Int("workers", 1),
		zap.Int64("lines", prog.lines),
		zap.Int("clusters", c.Len()),
		zap.Duration("elapsed", time.Since(start)))

	return Result{Clusters: c.Result(), Lines: prog.lines}, nil
}

type workerResult struct {
	clusters []cluster.Cluster
	lines    int64
}

func runParallel(ctx context.Context, r io.Reader, tok *pattern.Tokenizer, cfg Config) (Result, error) {
	start := time.Now()
	src := logsource.NewSharedReader(r)

	// Every worker sends exactly once, so a buffer of Jobs never blocks a
	// finishing worker even when the coordinator is busy reducing.
	results := make(chan workerResult, cfg.Jobs)

	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < cfg.Jobs; id++ {
		w := newWorker(id, src, tok, cfg)
		g.Go(func() error {
			res, err := w.run(gctx)
			if err != nil {
				return err
			}
			results <- res
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	red := cluster.NewReducer(cfg.Options)
	var lines int64
	for res := range results {
		red.Add(res.clusters)
		lines += res.lines
	}
	if err := <-done; err != nil {
		return Result{}, err
	}

	total := red.Len()
	clusters := red.Result()
	cfg.Logger.Debug("clustering finished",
		zap.Int("workers", cfg.Jobs),
		zap.Int64("lines", lines),
		zap.Int("clusters", total),
		zap.Int("reported", len(clusters)),
		zap.Duration("elapsed", time.Since(start)))

	return Result{Clusters: clusters, Lines: lines}, nil
}

// progress batches updates of a shared line counter.
type progress struct {
	counter *atomic.Int64
	lines   int64
	pending int64
}

// tick records one line and reports whether a batch boundary was crossed.
func (p *progress) tick() bool {
	p.lines++
	p.pending++
	if p.pending < progressBatch {
		return false
	}
	p.flush()
	return true
}

func (p *progress) flush() {
	if p.counter != nil && p.pending > 0 {
		p.counter.Add(p.pending)
	}
	p.pending = 0
}
