package mediation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"goanova/adapters/stats/linmodel"
	"goanova/domain/analysis"
	"goanova/internal/errors"
)

// bootSeries holds the per-resample statistics of the successful resamples
type bootSeries struct {
	headline    []float64
	conditional [][]float64 // indexed by probe point
	skipped     int
}

// bootstrap refits both equations on row resamples fanned out over a bounded
// worker pool. Worker w owns the contiguous chunk [w*chunk, (w+1)*chunk) and
// its own derived stream, so a fixed seed, sample count and worker count
// reproduce the exact resample sequence no matter how the pool is scheduled.
func (e *MediationEngine) bootstrap(ctx context.Context, eqM, eqY *analysis.DesignMatrix, derive func(*linmodel.Fit, *linmodel.Fit) pointEstimates, nPoints, samples int, seed int64) (*bootSeries, error) {
	n := eqM.Rows
	workers := e.workers
	if workers > samples {
		workers = samples
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (samples + workers - 1) / workers

	headline := make([]float64, samples)
	succeeded := make([]bool, samples)
	cond := make([][]float64, nPoints)
	for i := range cond {
		cond[i] = make([]float64, samples)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > samples {
			hi = samples
		}
		if lo >= hi {
			break
		}
		worker := w
		g.Go(func() error {
			stream, err := e.rng.WorkerStream(ctx, "mediation-bootstrap", seed, worker)
			if err != nil {
				return err
			}

			idx := make([]int, n)
			scratchM := scratchDesign(eqM)
			scratchY := scratchDesign(eqY)

			for r := lo; r < hi; r++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for i := range idx {
					idx[i] = stream.Intn(n)
				}

				mFit, err := e.ols.Fit(resample(eqM, idx, scratchM))
				if err != nil {
					if errors.IsCode(err, errors.CodeSingularDesign) {
						continue
					}
					return err
				}
				yFit, err := e.ols.Fit(resample(eqY, idx, scratchY))
				if err != nil {
					if errors.IsCode(err, errors.CodeSingularDesign) {
						continue
					}
					return err
				}

				st := derive(mFit, yFit)
				headline[r] = st.headline
				for p := 0; p < nPoints; p++ {
					cond[p][r] = st.conditional[p]
				}
				succeeded[r] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &bootSeries{conditional: make([][]float64, nPoints)}
	for r := 0; r < samples; r++ {
		if !succeeded[r] {
			out.skipped++
			continue
		}
		out.headline = append(out.headline, headline[r])
		for p := 0; p < nPoints; p++ {
			out.conditional[p] = append(out.conditional[p], cond[p][r])
		}
	}

	if float64(out.skipped) > maxSkippedShare*float64(samples) {
		return nil, errors.Newf(errors.CodeSingularDesign,
			"bootstrap skipped %d of %d resamples on singular refits", out.skipped, samples)
	}
	return out, nil
}

// scratchDesign allocates a reusable resample target with the source's shape
func scratchDesign(src *analysis.DesignMatrix) *analysis.DesignMatrix {
	x := make([][]float64, src.Rows)
	for i := range x {
		x[i] = make([]float64, len(src.ColNames))
	}
	return &analysis.DesignMatrix{
		X:            x,
		ColNames:     src.ColNames,
		Response:     make([]float64, src.Rows),
		ResponseName: src.ResponseName,
		Rows:         src.Rows,
	}
}

// resample copies the chosen rows of the source design into the scratch
func resample(src *analysis.DesignMatrix, idx []int, dst *analysis.DesignMatrix) *analysis.DesignMatrix {
	for i, j := range idx {
		copy(dst.X[i], src.X[j])
		dst.Response[i] = src.Response[j]
	}
	return dst
}
