package explain

import "context"

// Sampling-based attribution for models without tree structure. The
// value of a coalition is the model output with coalition features
// taken from the explained sample and the rest from the background
// set, averaged over background rows. With six base features the full
// coalition space (2^6) is enumerated, so the estimate is exact up to
// the background approximation; cost is background-size * 2^features
// model calls, which is why this path is bounded and cached upstream.

// kernelShap computes per-feature attributions for f at x against the
// background rows.
func kernelShap(ctx context.Context, f func([]float64) (float64, error), x []float64, background [][]float64) ([]float64, error) {
	m := len(x)
	numMasks := 1 << m

	// factorials up to m for the Shapley permutation weights
	fact := make([]float64, m+1)
	fact[0] = 1
	for i := 1; i <= m; i++ {
		fact[i] = fact[i-1] * float64(i)
	}

	// coalition values, averaged over the background
	values := make([]float64, numMasks)
	z := make([]float64, m)
	for mask := 0; mask < numMasks; mask++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		total := 0.0
		for _, b := range background {
			for i := 0; i < m; i++ {
				if mask&(1<<i) != 0 {
					z[i] = x[i]
				} else {
					z[i] = b[i]
				}
			}
			out, err := f(z)
			if err != nil {
				return nil, err
			}
			total += out
		}
		values[mask] = total / float64(len(background))
	}

	phi := make([]float64, m)
	for i := 0; i < m; i++ {
		bit := 1 << i
		for mask := 0; mask < numMasks; mask++ {
			if mask&bit != 0 {
				continue
			}
			size := popcount(mask)
			w := fact[size] * fact[m-size-1] / fact[m]
			phi[i] += w * (values[mask|bit] - values[mask])
		}
	}
	return phi, nil
}

func popcount(mask int) int {
	count := 0
	for mask != 0 {
		mask &= mask - 1
		count++
	}
	return count
}
