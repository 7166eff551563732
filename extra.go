package splitlog

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// RequestInfo describes the request a batch was produced by.
type RequestInfo interface {
	ClientIP() string
	Host() string
	URL() string
	Method() string
	// Debug reports whether the runtime summary should be logged.
	Debug() bool
	StartTime() time.Time
	// StartMemory is the heap allocation in bytes when the request started.
	StartMemory() uint64
}

var moduleCount = sync.OnceValue(func() int {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return 0
	}
	return len(info.Deps) + 1
})

func heapAlloc() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

// extraInfo builds the lines written ahead of a request's batch: the
// runtime summary when info.Debug() is set, then the request summary.
func extraInfo(info RequestInfo, now time.Time) []string {
	lines := make([]string, 0, 2)
	if info.Debug() {
		elapsed := now.Sub(info.StartTime()).Seconds()
		var throughput float64
		if elapsed > 0 {
			throughput = 1 / elapsed
		}
		memDelta := float64(int64(heapAlloc())-int64(info.StartMemory())) / 1024
		lines = append(lines, fmt.Sprintf("[ RUNTIME ] runtime:%.6fs throughput:%.2freq/s memory:%.2fkb modules:%d",
			elapsed, throughput, memDelta, moduleCount()))
	}
	lines = append(lines, fmt.Sprintf("[ REQUEST ] %s %s %s%s", info.ClientIP(), info.Method(), info.Host(), info.URL()))
	return lines
}
