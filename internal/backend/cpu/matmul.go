package cpu

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/parallel"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Rows of the output are computed in parallel.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %dD @ %dD", len(aShape), len(bShape)))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %v @ %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	M, K, N := aShape[0], aShape[1], bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{M, N}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulRows(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), M, K, N, cpu.pcfg)
	case tensor.Float64:
		matmulRows(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), M, K, N, cpu.pcfg)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

func matmulRows[T float32 | float64](dst, a, b []T, M, K, N int, pcfg parallel.Config) {
	parallel.For(M, func(i int) {
		aRow := a[i*K : (i+1)*K]
		dstRow := dst[i*N : (i+1)*N]
		for k, av := range aRow {
			if av == 0 {
				continue
			}
			bRow := b[k*N : (k+1)*N]
			for j := range dstRow {
				dstRow[j] += av * bRow[j]
			}
		}
	}, pcfg)
}
