package mysql

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"

	"hotel_booking/internal/domain"
)

func TestBlobRoundTrip(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	assert.Equal(t, v, blobToFloat32(float32ToBlob(v)))
	assert.Nil(t, float32ToBlob(nil))
	assert.Nil(t, blobToFloat32(nil))
}

func TestNormalizeAndDot(t *testing.T) {
	a := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, a[0], 1e-6)
	assert.InDelta(t, 0.8, a[1], 1e-6)
	assert.InDelta(t, 1.0, dotProduct(a, a), 1e-6)
	assert.Equal(t, []float32{0, 0}, normalize([]float32{0, 0}))
}

func TestMinHeapKeepsTopK(t *testing.T) {
	h := &minHeap{}
	heap.Init(h)
	for i, s := range []float64{0.1, 0.9, 0.5, 0.7, 0.2} {
		sh := domain.ScoredHotel{Hotel: domain.Hotel{ID: string(rune('a' + i))}, Score: s}
		if h.Len() < 2 {
			heap.Push(h, sh)
		} else if s > (*h)[0].Score {
			(*h)[0] = sh
			heap.Fix(h, 0)
		}
	}
	assert.Equal(t, 0.7, heap.Pop(h).(domain.ScoredHotel).Score)
	assert.Equal(t, 0.9, heap.Pop(h).(domain.ScoredHotel).Score)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\o/`, escapeLike(`50% off_now \o/`))
}
