package report

import (
	"bytes"
	"runtime"
	"strconv"
)

// Goroutine describes the goroutine a failure happened on.
type Goroutine struct {
	ID    uint64
	State string
}

// CurrentGoroutine describes the calling goroutine. Go deliberately hides
// goroutine identity, so it is read from the header of runtime.Stack.
func CurrentGoroutine() Goroutine {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	return parseGoroutineHeader(buf)
}

// parseGoroutineHeader reads "goroutine 18 [running]:" into a Goroutine.
func parseGoroutineHeader(b []byte) Goroutine {
	var g Goroutine
	b, ok := bytes.CutPrefix(b, []byte("goroutine "))
	if !ok {
		return g
	}
	idEnd := bytes.IndexByte(b, ' ')
	if idEnd < 0 {
		return g
	}
	if id, err := strconv.ParseUint(string(b[:idEnd]), 10, 64); err == nil {
		g.ID = id
	}
	rest := b[idEnd+1:]
	if len(rest) > 0 && rest[0] == '[' {
		if end := bytes.IndexByte(rest, ']'); end > 0 {
			g.State = string(rest[1:end])
		}
	}
	return g
}

func (g Goroutine) String() string {
	s := "goroutine " + strconv.FormatUint(g.ID, 10)
	if g.State != "" {
		s += " [" + g.State + "]"
	}
	return s
}
