package lyrics

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LineResult is the outcome of assigning one line of a song.
type LineResult struct {
	Index   int
	Result  *Result
	Missing int
	Err     error
}

// AssignSong assigns every line concurrently with at most workers goroutines
// (GOMAXPROCS when workers <= 0). A failing line records its error in its
// LineResult and does not affect the others, as does a line whose
// vectorization failed (Line.Err). The returned error is only set
// when ctx is cancelled; lines not started by then carry ctx.Err().
func AssignSong(ctx context.Context, a *Assigner, lines []*Line, candidates [][]float64, n, workers int) ([]*LineResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]*LineResult, len(lines))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, line := range lines {
		results[i] = &LineResult{Index: i, Missing: len(line.Missing)}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		if line.Err != nil {
			results[i].Err = line.Err
			continue
		}
		lr := results[i]
		vectors := line.Vectors
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				lr.Err = err
				return nil
			}
			lr.Result, lr.Err = a.AssignLineScores(vectors, candidates, n)
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}
