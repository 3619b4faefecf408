package main

import (
	"fmt"
	"math"
)

func cosineSimilarity(v1, v2 []float32) float64 {
	var dot, mag1, mag2 float64
	for i := 0; i < len(v1); i++ {
		dot += float64(v1[i]) * float64(v2[i])
		mag1 += float64(v1[i]) * float64(v1[i])
		mag2 += float64(v2[i]) * float64(v2[i])
	}

	if mag1 == 0 || mag2 == 0 {
		return 0
	}

	return dot / (math.Sqrt(mag1) * math.Sqrt(mag2))
}

func euclideanDistance(v1, v2 []float32) float64 {
	var sum float64
	for i := 0; i < len(v1); i++ {
		diff := float64(v1[i]) - float64(v2[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func normalize(v []float32) []float32 {
	var mag float64
	for _, x := range v {
		mag += float64(x) * float64(x)
	}
	mag = math.Sqrt(mag)
	if mag == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / mag)
	}
	return out
}

func main() {
	// Posture basket counts from two real days (8 bend baskets x 2 pitch
	// baskets, flattened). Same sitting shape, very different durations:
	// deskDayLong is ~28k samples, deskDayShort ~6k.
	deskDayLong := []float32{124, 9822, 11873, 3101, 482, 90, 12, 0, 201, 1544, 980, 211, 44, 8, 1, 0}
	deskDayShort := []float32{31, 2217, 2651, 702, 99, 17, 2, 0, 48, 342, 220, 51, 9, 1, 0, 0}

	cosSim := cosineSimilarity(deskDayLong, deskDayShort)
	fmt.Printf("Cosine similarity on raw counts:  %.6f\n", cosSim)
	fmt.Printf("Euclidean on raw counts:          %.2f (dominated by volume!)\n",
		euclideanDistance(deskDayLong, deskDayShort))

	// After unit-length normalization the volume difference disappears
	n1 := normalize(deskDayLong)
	n2 := normalize(deskDayShort)
	fmt.Printf("\nEuclidean on unit vectors:        %.6f\n", euclideanDistance(n1, n2))
	fmt.Printf("sqrt(2*(1-cos)):                  %.6f (same thing)\n",
		math.Sqrt(2*(1-cosSim)))

	// So on normalized vectors pgvector's <-> and <=> order results
	// identically; we store unit vectors and query with <=> so the
	// distance column reads directly as 1-cos.
	fmt.Printf("\n<=> distance (1-cos):             %.6f\n", 1-cosSim)

	// Worst case sanity check: orthogonal unit vectors
	a := make([]float32, 16)
	b := make([]float32, 16)
	a[1] = 1
	b[14] = 1
	fmt.Printf("\nOrthogonal days: <=> = %.1f, <-> = %.4f (max for unit vectors)\n",
		1-cosineSimilarity(a, b), euclideanDistance(a, b))
}
