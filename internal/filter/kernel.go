package filter

import (
	"math"
	"sync"
)

// GaussianKernel generates a normalized 1D Gaussian kernel using radius as
// the standard deviation. The kernel spans 2*ceil(3*radius)+1 taps.
//
// For radius <= 0, returns the identity kernel [1.0].
func GaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1.0}
	}
	return gaussianKernel(radius, int(math.Ceil(radius*3)))
}

// truncatedKernel is GaussianKernel limited to at most maxHalf taps on each
// side. With edge clamping, taps farther than the image extent only repeat
// the edge sample, so a blur over an image no larger than maxHalf loses
// nothing but the tail weight, which is renormalized.
func truncatedKernel(radius float64, maxHalf int) []float32 {
	if radius <= 0 {
		return []float32{1.0}
	}
	if radius*3 <= float64(maxHalf) {
		return CachedGaussianKernel(radius)
	}
	return gaussianKernel(radius, maxHalf)
}

func gaussianKernel(radius float64, halfSize int) []float32 {
	size := halfSize*2 + 1
	kernel := make([]float32, size)

	twoSigmaSq := 2 * radius * radius
	sum := float64(0)
	for i := 0; i < size; i++ {
		x := float64(i - halfSize)
		val := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(val)
		sum += val
	}

	invSum := float32(1.0 / sum)
	for i := range kernel {
		kernel[i] *= invSum
	}
	return kernel
}

// kernelCache keeps kernels for recently used radii. Slider drags request the
// same few radii over and over.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[int][]float32
	maxLen int
}

var defaultKernelCache = &kernelCache{cache: make(map[int][]float32), maxLen: 64}

func (c *kernelCache) get(radius float64) []float32 {
	// Quantize radius to 0.01 precision
	key := int(radius * 100)

	c.mu.RLock()
	if kernel, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return kernel
	}
	c.mu.RUnlock()

	kernel := GaussianKernel(float64(key) / 100)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		clear(c.cache)
	}
	c.cache[key] = kernel
	c.mu.Unlock()
	return kernel
}

// CachedGaussianKernel returns a shared, read-only kernel for radius.
func CachedGaussianKernel(radius float64) []float32 {
	return defaultKernelCache.get(radius)
}
