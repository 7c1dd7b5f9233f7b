package raster

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"scroll-trail-renderer/internal/logging"
)

var (
	// ErrInvalidSize is returned for non-positive buffer dimensions.
	ErrInvalidSize = errors.New("raster: invalid buffer size")
	// ErrAllocation is returned when a buffer exceeds the device limits.
	ErrAllocation = errors.New("raster: buffer allocation failed")
	// ErrReleased is returned when a pass touches a released buffer.
	ErrReleased = errors.New("raster: buffer released")
	// ErrFeedbackHazard is returned when a pass would read the buffer it writes.
	ErrFeedbackHazard = errors.New("raster: pass reads its own target")
)

// DefaultMaxDimension bounds either side of a buffer when Limits leaves it 0.
const DefaultMaxDimension = 8192

// Limits caps what a Device will allocate. Zero fields take defaults;
// MaxBytes 0 means no byte budget.
type Limits struct {
	MaxDimension int
	MaxBytes     int64
}

// Stats is a snapshot of a device's allocation accounting.
type Stats struct {
	Live      int
	Allocs    int
	Releases  int
	LiveBytes int64
}

// Device allocates offscreen buffers and runs fragment passes over them.
// Alloc and Release are safe for concurrent use; a pass must not overlap a
// Release of any buffer it touches.
type Device struct {
	limits  Limits
	workers int

	mu     sync.Mutex
	stats  Stats
	nextID uint64
}

// NewDevice creates a device with the given limits.
func NewDevice(limits Limits) *Device {
	if limits.MaxDimension <= 0 {
		limits.MaxDimension = DefaultMaxDimension
	}
	return &Device{
		limits:  limits,
		workers: runtime.GOMAXPROCS(0),
	}
}

// Alloc returns a zero-cleared RGBA32F buffer.
func (d *Device) Alloc(w, h int, filter Filter) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: allocate %dx%d: %w", w, h, ErrInvalidSize)
	}
	if w > d.limits.MaxDimension || h > d.limits.MaxDimension {
		return nil, fmt.Errorf("raster: allocate %dx%d exceeds max dimension %d: %w",
			w, h, d.limits.MaxDimension, ErrAllocation)
	}

	b := &Buffer{Width: w, Height: h, Format: FormatRGBA32F, Filter: filter}
	size := b.bytes()

	d.mu.Lock()
	if d.limits.MaxBytes > 0 && d.stats.LiveBytes+size > d.limits.MaxBytes {
		live := d.stats.LiveBytes
		d.mu.Unlock()
		return nil, fmt.Errorf("raster: allocate %dx%d (%d bytes, %d live, budget %d): %w",
			w, h, size, live, d.limits.MaxBytes, ErrAllocation)
	}
	d.nextID++
	b.id = d.nextID
	d.stats.Live++
	d.stats.Allocs++
	d.stats.LiveBytes += size
	d.mu.Unlock()

	b.Pix = make([]float32, w*h*4)
	logging.Logger().Debug("raster: buffer allocated", "id", b.id, "width", w, "height", h)
	return b, nil
}

// Release returns a buffer's storage. Releasing nil or an already released
// buffer is a no-op.
func (d *Device) Release(b *Buffer) {
	if b == nil || b.Pix == nil {
		return
	}
	size := b.bytes()
	b.Pix = nil

	d.mu.Lock()
	d.stats.Live--
	d.stats.Releases++
	d.stats.LiveBytes -= size
	d.mu.Unlock()

	logging.Logger().Debug("raster: buffer released", "id", b.id)
}

// Stats returns the current allocation accounting.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// AllocPair allocates two buffers of the same size, releasing the first if the
// second fails.
func (d *Device) AllocPair(w, h int, filter Filter) ([2]*Buffer, error) {
	a, err := d.Alloc(w, h, filter)
	if err != nil {
		return [2]*Buffer{}, err
	}
	b, err := d.Alloc(w, h, filter)
	if err != nil {
		d.Release(a)
		return [2]*Buffer{}, err
	}
	return [2]*Buffer{a, b}, nil
}
