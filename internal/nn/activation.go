package nn

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// ActType names an activation function.
type ActType string

// Supported activation functions.
const (
	ActReLU    ActType = "relu"
	ActReLU6   ActType = "relu6"
	ActSwish   ActType = "swish"
	ActSigmoid ActType = "sigmoid"
	ActTanh    ActType = "tanh"
)

// ParseActType validates an activation name.
// Returns an error for unknown names; used by config validation.
func ParseActType(name string) (ActType, error) {
	switch ActType(name) {
	case ActReLU, ActReLU6, ActSwish, ActSigmoid, ActTanh:
		return ActType(name), nil
	default:
		return "", fmt.Errorf("unknown activation %q (supported: relu, relu6, swish, sigmoid, tanh)", name)
	}
}

// Activation applies a named element-wise activation function.
//
// Example:
//
//	act := nn.NewActivation[Backend](nn.ActSwish)
//	output := act.Forward(input)
type Activation[B tensor.Backend] struct {
	act ActType
}

// NewActivation creates an activation module.
// Panics on unknown activation types; validate with ParseActType first when
// the name comes from configuration.
func NewActivation[B tensor.Backend](act ActType) *Activation[B] {
	if _, err := ParseActType(string(act)); err != nil {
		panic("activation: " + err.Error())
	}
	return &Activation[B]{act: act}
}

// Forward applies the activation element-wise.
func (a *Activation[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b := input.Backend()
	switch a.act {
	case ActReLU:
		return tensor.New[float32, B](b.ReLU(input.Raw()), b)
	case ActReLU6:
		// relu6(x) = relu(x) - relu(x - 6)
		lower := b.ReLU(input.Raw())
		upper := b.ReLU(b.AddScalar(input.Raw(), float32(-6)))
		return tensor.New[float32, B](b.Sub(lower, upper), b)
	case ActSwish:
		// swish(x) = x * sigmoid(x)
		sig := b.Sigmoid(input.Raw())
		return tensor.New[float32, B](b.Mul(input.Raw(), sig), b)
	case ActSigmoid:
		return tensor.New[float32, B](b.Sigmoid(input.Raw()), b)
	case ActTanh:
		return tensor.New[float32, B](b.Tanh(input.Raw()), b)
	default:
		panic(fmt.Sprintf("activation: unknown type %q", a.act))
	}
}

// Parameters returns an empty slice (activations have no trainable parameters).
func (a *Activation[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns a string representation of the module.
func (a *Activation[B]) String() string {
	return fmt.Sprintf("Activation(%s)", a.act)
}
