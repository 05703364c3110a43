package parallel

import (
	"sync/atomic"
	"testing"
)

// TestFor_VisitsEveryIndex tests that each index is visited exactly once,
// both sequentially and in parallel.
func TestFor_VisitsEveryIndex(t *testing.T) {
	cfgs := map[string]Config{
		"sequential": {Enabled: false},
		"parallel":   {Enabled: true, NumWorkers: 4, MinChunkSize: 1},
	}

	for name, cfg := range cfgs {
		const n = 1000
		counts := make([]int32, n)
		For(n, func(i int) {
			atomic.AddInt32(&counts[i], 1)
		}, cfg)

		for i, c := range counts {
			if c != 1 {
				t.Errorf("%s: index %d visited %d times", name, i, c)
				break
			}
		}
	}
}

// TestFor_SmallNFallsBackSequential tests the chunk size threshold.
func TestFor_SmallNFallsBackSequential(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 64}

	// Below MinChunkSize the loop runs inline, so order is deterministic.
	var order []int
	For(8, func(i int) {
		order = append(order, i)
	}, cfg)

	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, expected %d", i, v, i)
		}
	}
}

// TestFor_ZeroIterations tests the empty range.
func TestFor_ZeroIterations(t *testing.T) {
	called := false
	For(0, func(int) { called = true }, DefaultConfig())
	if called {
		t.Error("callback invoked for empty range")
	}
}

// TestForBatch_CoversGrid tests the batch*channels decomposition.
func TestForBatch_CoversGrid(t *testing.T) {
	const batch, channels = 3, 5
	var visited [batch][channels]int32

	ForBatch(batch, channels, func(b, c int) {
		atomic.AddInt32(&visited[b][c], 1)
	}, Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1})

	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			if visited[b][c] != 1 {
				t.Errorf("(%d, %d) visited %d times", b, c, visited[b][c])
			}
		}
	}
}

// TestDefaultConfig tests that defaults are usable.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NumWorkers < 1 {
		t.Errorf("NumWorkers = %d", cfg.NumWorkers)
	}
	if cfg.MinChunkSize < 1 {
		t.Errorf("MinChunkSize = %d", cfg.MinChunkSize)
	}
}
