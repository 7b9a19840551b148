package agent

import (
	"io"
	"math"
	"os"
)

// entropySampleSize bounds how much of a file the probe reads.
const entropySampleSize = 4096

// FileEntropy returns the Shannon entropy (bits per byte) of the first
// 4096 bytes of the file. Unreadable files score 0.
func FileEntropy(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	buf := make([]byte, entropySampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0
	}
	if n == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range buf[:n] {
		freq[b]++
	}

	entropy := 0.0
	total := float64(n)
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
