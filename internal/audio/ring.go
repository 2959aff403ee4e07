package audio

import "sync/atomic"

// Ring is a single-producer single-consumer circular buffer of stereo
// frames. The write and read positions advance monotonically and are read
// across threads; the frame slots themselves are unguarded because each is
// written by exactly one thread before the index hand-off.
type Ring struct {
	frames   [][2]float32
	writePos atomic.Int64
	readPos  atomic.Int64
}

// NewRing allocates a ring of the given capacity in frames. A common choice
// is sampleRate/10, i.e. 100 ms of lead.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{frames: make([][2]float32, capacity)}
}

func (r *Ring) Capacity() int { return len(r.frames) }

// Full reports whether another frame would overrun the reader.
func (r *Ring) Full() bool {
	return r.writePos.Load()-r.readPos.Load()+1 >= int64(len(r.frames))
}

// Buffered returns the number of frames written but not yet consumed.
func (r *Ring) Buffered() int {
	n := r.writePos.Load() - r.readPos.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Push appends one frame. Producer side only; callers must check Full.
func (r *Ring) Push(left, right float32) {
	w := r.writePos.Load()
	r.frames[w%int64(len(r.frames))] = [2]float32{left, right}
	r.writePos.Add(1)
}

// ReadInto fills the two channel slices with the next len(left) frames.
// On underrun the remainder is zero-filled and the read position only
// advances past what was actually produced, so late frames still come out
// in order.
func (r *Ring) ReadInto(left, right []float32) {
	n := len(left)
	read := r.readPos.Load()
	write := r.writePos.Load()

	avail := int(write - read)
	if avail > n {
		avail = n
	}
	for i := 0; i < avail; i++ {
		f := r.frames[(read+int64(i))%int64(len(r.frames))]
		left[i] = f[0]
		right[i] = f[1]
	}
	for i := avail; i < n; i++ {
		left[i] = 0
		right[i] = 0
	}
	r.readPos.Add(int64(avail))
}

// ReadInterleaved fills dst with frames in LRLR order; len(dst) must be
// even. Same underrun behavior as ReadInto.
func (r *Ring) ReadInterleaved(dst []float32) {
	n := len(dst) / 2
	read := r.readPos.Load()
	write := r.writePos.Load()

	avail := int(write - read)
	if avail > n {
		avail = n
	}
	for i := 0; i < avail; i++ {
		f := r.frames[(read+int64(i))%int64(len(r.frames))]
		dst[i*2] = f[0]
		dst[i*2+1] = f[1]
	}
	for i := avail * 2; i < n*2; i++ {
		dst[i] = 0
	}
	r.readPos.Add(int64(avail))
}
