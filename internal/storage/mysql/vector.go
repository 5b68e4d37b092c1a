package mysql

import (
	"container/heap"
	"context"
	"encoding/binary"
	"math"
	"strings"

	"hotel_booking/internal/domain"
)

// SearchHotelsVector ranks every stored embedding by cosine similarity and
// keeps the top limit. The scan is exact, so numCandidates only caps limit.
func (r *Repo) SearchHotelsVector(ctx context.Context, vec []float32, numCandidates, limit int) ([]domain.ScoredHotel, error) {
	if limit <= 0 {
		limit = 4
	}
	if numCandidates > 0 && limit > numCandidates {
		limit = numCandidates
	}
	q := normalize(vec)

	rows, err := r.db.QueryContext(ctx, vectorCandidatesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	h := &minHeap{}
	heap.Init(h)
	for rows.Next() {
		hotel, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		if len(hotel.Embedding) != len(q) {
			continue
		}
		score := dotProduct(q, normalize(hotel.Embedding))
		hotel.Embedding = nil
		if h.Len() < limit {
			heap.Push(h, domain.ScoredHotel{Hotel: hotel, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = domain.ScoredHotel{Hotel: hotel, Score: score}
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// pop ascending, fill from the back so the result is descending
	out := make([]domain.ScoredHotel, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(domain.ScoredHotel)
	}
	return out, nil
}

type minHeap []domain.ScoredHotel

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(domain.ScoredHotel)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// --- math helpers ---

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// --- serialization helpers ---

// float32ToBlob returns nil for an empty vector so the column stays NULL.
func float32ToBlob(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
