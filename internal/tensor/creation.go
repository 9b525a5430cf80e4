package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	// Buffer memory is already zeroed.
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var one T
	switch any(one).(type) {
	case float32:
		one = any(float32(1)).(T)
	case float64:
		one = any(float64(1)).(T)
	case int32:
		one = any(int32(1)).(T)
	case int64:
		one = any(int64(1)).(T)
	case uint8:
		one = any(uint8(1)).(T)
	case bool:
		one = any(true).(T)
	}
	return Full[T, B](shape, one, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float tensor with standard-normal values via the
// Box-Muller transform. Uses math/rand for reproducibility under a seed.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	switch d := any(data).(type) {
	case []float32:
		for i := 0; i < len(d); i += 2 {
			z0, z1 := boxMuller()
			d[i] = float32(z0)
			if i+1 < len(d) {
				d[i+1] = float32(z1)
			}
		}
	case []float64:
		for i := 0; i < len(d); i += 2 {
			z0, z1 := boxMuller()
			d[i] = z0
			if i+1 < len(d) {
				d[i+1] = z1
			}
		}
	default:
		panic("Randn only supports float32 and float64")
	}
	return t
}

func boxMuller() (float64, float64) {
	u1 := rand.Float64() //nolint:gosec // math/rand is intentional for seeded reproducibility
	u2 := rand.Float64() //nolint:gosec
	r := math.Sqrt(-2.0 * math.Log(u1+1e-12))
	return r * math.Cos(2.0*math.Pi*u2), r * math.Sin(2.0*math.Pi*u2)
}

// Rand creates a float tensor with values uniform in [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	switch d := any(data).(type) {
	case []float32:
		for i := range d {
			d[i] = rand.Float32() //nolint:gosec
		}
	case []float64:
		for i := range d {
			d[i] = rand.Float64() //nolint:gosec
		}
	default:
		panic("Rand only supports float32 and float64")
	}
	return t
}

// Arange creates a 1D int32 tensor with values [start, end).
func Arange[B Backend](start, end int32, b B) *Tensor[int32, B] {
	if end <= start {
		panic("Arange: end must be greater than start")
	}
	t := Zeros[int32, B](Shape{int(end - start)}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + int32(i)
	}
	return t
}
