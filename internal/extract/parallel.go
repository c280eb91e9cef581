package extract

import (
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/screenmark/internal/common"
)

// runParallel fans the strategies out over a bounded worker pool. Every
// strategy runs to completion and results merge by chain position, so the
// outcome is identical to the sequential order; only wall time changes.
func (e *Engine) runParallel(shot *capture, chain []strategy) (Result, error) {
	type slot struct {
		res Result
		ok  bool
	}
	results := make([]slot, len(chain))
	stages := common.NewStageRecorder()

	sem := make(chan struct{}, e.cfg.MaxWorkers)
	var wg sync.WaitGroup
	for i, s := range chain {
		if e.cfg.SimpleMode && !s.simple {
			continue
		}
		wg.Add(1)
		go func(i int, s strategy) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var (
				cand candidate
				ok   bool
			)
			stages.Time(s.name, func() { cand, ok = s.run(shot) })
			if !ok {
				return
			}
			if res, accepted := e.accept(cand, s.name, shot.threshold); accepted {
				results[i] = slot{res: res, ok: true}
			}
		}(i, s)
	}
	wg.Wait()
	slog.Debug("strategy timings", "stages", stages.String())

	for _, r := range results {
		if r.ok {
			return r.res, nil
		}
	}
	return Result{}, ErrDecodeNotFound
}
