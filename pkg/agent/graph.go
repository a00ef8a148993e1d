package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Stage is one unit of work in the turn pipeline. A stage reads any turn
// state it likes but writes only its own output fields; stages grouped into
// a phase run concurrently.
type Stage struct {
	Name string
	Run  func(ctx context.Context, st *TurnState) error
}

// runPhase executes a set of stages concurrently and records failures in
// StageErrors. A stage failing, or panicking, never aborts the phase: the
// pipeline degrades to whatever information the surviving stages produced.
func runPhase(ctx context.Context, st *TurnState, logger *slog.Logger, stages ...Stage) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		st.StageErrors[name] = err
	}

	for _, stage := range stages {
		wg.Add(1)
		go func(stage Stage) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("stage panicked", "stage", stage.Name, "panic", r)
					record(stage.Name, fmt.Errorf("stage panicked: %v", r))
				}
			}()

			start := time.Now()
			if err := stage.Run(ctx, st); err != nil {
				logger.Warn("stage failed", "stage", stage.Name, "error", err, "duration", time.Since(start))
				record(stage.Name, err)
				return
			}
			logger.Debug("stage completed", "stage", stage.Name, "duration", time.Since(start))
		}(stage)
	}
	wg.Wait()
}
