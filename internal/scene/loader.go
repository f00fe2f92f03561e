package scene

import (
	"context"
	"fmt"
	"sync"

	"github.com/chenen3/glyphpad/internal/cachemanager"
	"github.com/chenen3/glyphpad/internal/log"
)

// Loader returns the artifact for a source, running the tool only the first
// time a source is seen. A failure is not cached and does not touch the
// artifacts of other sources.
type Loader struct {
	cache *cachemanager.ReadThroughCache[string, *Artifact, string]
}

// NewLoader wraps runner with a session-lifetime cache.
func NewLoader(runner Runner) *Loader {
	load := func(ctx context.Context, src string) (*Artifact, error) {
		summary, err := runner.Summarize(ctx, src)
		if err != nil {
			return nil, err
		}
		preview, err := runner.Preview(ctx, src)
		if err != nil {
			return nil, err
		}
		log.Info(log.CatScene, "scene loaded", "source", src, "objects", len(summary.Objects))
		return &Artifact{Source: src, Summary: summary, Preview: preview}, nil
	}
	return &Loader{
		cache: cachemanager.NewReadThroughCache[string, *Artifact, string](
			cachemanager.NewInMemoryCacheManager[string, *Artifact]("scene", cachemanager.NoExpiration, 0),
			load,
		),
	}
}

// Load returns the cached artifact for src or produces it.
func (l *Loader) Load(ctx context.Context, src string) (*Artifact, error) {
	a, err := l.cache.Get(ctx, src, src, cachemanager.NoExpiration)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", src, err)
	}
	return a, nil
}

// Cached returns the artifact for src if it has already been produced.
func (l *Loader) Cached(src string) (*Artifact, bool) {
	return l.cache.Peek(context.Background(), src)
}

// Result is the outcome of a background load.
type Result struct {
	Source   string
	Artifact *Artifact
	Err      error
}

type job struct {
	ctx   context.Context
	src   string
	reply chan Result
}

// Worker runs loads on a single background goroutine so the goroutine that
// owns the document is free while the tool runs. Callers receive exactly
// one Result per Submit.
type Worker struct {
	loader *Loader
	jobs   chan job
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewWorker starts a worker around loader.
func NewWorker(loader *Loader) *Worker {
	w := &Worker{
		loader: loader,
		jobs:   make(chan job, 16),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case j := <-w.jobs:
			a, err := w.loader.Load(j.ctx, j.src)
			j.reply <- Result{Source: j.src, Artifact: a, Err: err}
		case <-w.done:
			for {
				select {
				case j := <-w.jobs:
					j.reply <- Result{Source: j.src, Err: errStopped(j.src)}
				default:
					return
				}
			}
		}
	}
}

func errStopped(src string) error {
	return fmt.Errorf("loading scene %s: worker stopped", src)
}

// Submit queues a load of src. The returned channel is buffered and
// receives one Result.
func (w *Worker) Submit(ctx context.Context, src string) <-chan Result {
	reply := make(chan Result, 1)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		reply <- Result{Source: src, Err: errStopped(src)}
		return reply
	}
	select {
	case w.jobs <- job{ctx: ctx, src: src, reply: reply}:
	case <-ctx.Done():
		reply <- Result{Source: src, Err: ctx.Err()}
	}
	return reply
}

// Cached returns the artifact for src if it has already been produced.
func (w *Worker) Cached(src string) (*Artifact, bool) { return w.loader.Cached(src) }

// Stop ends the worker after the job in progress, if any. Jobs still queued
// are answered with an error.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.done)
	w.mu.Unlock()
	w.wg.Wait()
}
