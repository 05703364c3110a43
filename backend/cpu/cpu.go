// Copyright 2025 The FPNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU compute backend.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
package cpu

import (
	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Backend is the CPU implementation of tensor.Backend.
type Backend = cpu.CPUBackend

// Compile-time interface check.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return cpu.New()
}
