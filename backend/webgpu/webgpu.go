//go:build windows

// Copyright 2025 The FPNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU compute backend built on WebGPU.
//
// Example:
//
//	if webgpu.IsAvailable() {
//		backend, err := webgpu.New()
//		...
//	}
package webgpu

import (
	"github.com/fpnet-ml/fpnet/internal/backend/webgpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Backend is the WebGPU implementation of tensor.Backend.
type Backend = webgpu.Backend

// Compile-time interface check.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available on this system.
func New() (*Backend, error) {
	return webgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return webgpu.IsAvailable()
}
