package session

import (
	"fmt"
	"io"
	"time"
)

// Stats of one run.
type Stats struct {
	Items   int           // Work items processed.
	Elapsed time.Duration // Sum of dispatch plus wait over all items.
	VecSize int           // Bytes in one row.
}

// GFLOPS is the row byte size over the elapsed time, in units of 1e9 per
// second. Zero elapsed reports zero.
func (s Stats) GFLOPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.VecSize) / s.Elapsed.Seconds() * 1e-9
}

func (s Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "\nProcessing time = %.4fms\n", float64(s.Elapsed)/float64(time.Millisecond))
	gflops := s.GFLOPS()
	if gflops < 0.001 {
		fmt.Fprintf(w, "Throughput = %.9f Gflops\n", gflops)
	} else {
		fmt.Fprintf(w, "Throughput = %.4f Gflops\n", gflops)
	}
}
