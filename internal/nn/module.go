// Package nn implements the neural-network building blocks used by the
// feature-pyramid layers: convolutions, batch normalization, activations,
// and the Parameter/Module plumbing they share.
package nn

import (
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	// Spatial modules expect NCHW input: [batch, channels, height, width].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Returns an empty slice for
	// modules without trainable parameters.
	Parameters() []*Parameter[B]
}
