package metrics

import (
	rtmetrics "runtime/metrics"
	"sync"
)

// MemorySnapshot holds process memory counters in bytes.
type MemorySnapshot struct {
	RSS       uint64
	HeapUsed  uint64
	HeapTotal uint64
	Stack     uint64
	External  uint64
}

// MemoryDelta is after minus before. Fields may be negative when the
// collector freed memory while the request ran.
type MemoryDelta struct {
	RSS       int64 `json:"rss"`
	HeapUsed  int64 `json:"heap_used"`
	HeapTotal int64 `json:"heap_total"`
	Stack     int64 `json:"stack"`
	External  int64 `json:"external"`
}

const (
	sampleTotal = iota
	sampleHeapObjects
	sampleHeapUnused
	sampleHeapFree
	sampleHeapStacks
	sampleOSStacks
	sampleMetadataOther
	sampleOther
)

var sampleNames = [...]string{
	sampleTotal:         "/memory/classes/total:bytes",
	sampleHeapObjects:   "/memory/classes/heap/objects:bytes",
	sampleHeapUnused:    "/memory/classes/heap/unused:bytes",
	sampleHeapFree:      "/memory/classes/heap/free:bytes",
	sampleHeapStacks:    "/memory/classes/heap/stacks:bytes",
	sampleOSStacks:      "/memory/classes/os-stacks:bytes",
	sampleMetadataOther: "/memory/classes/metadata/other:bytes",
	sampleOther:         "/memory/classes/other:bytes",
}

// Sampled twice per request. runtime/metrics.Read does not stop the world.
var samplePool = sync.Pool{
	New: func() any {
		s := make([]rtmetrics.Sample, len(sampleNames))
		for i, name := range sampleNames {
			s[i].Name = name
		}
		return &s
	},
}

// ReadMemory samples the Go runtime memory classes.
func ReadMemory() MemorySnapshot {
	sp := samplePool.Get().(*[]rtmetrics.Sample)
	defer samplePool.Put(sp)

	samples := *sp
	rtmetrics.Read(samples)

	v := func(i int) uint64 {
		if samples[i].Value.Kind() != rtmetrics.KindUint64 {
			return 0
		}
		return samples[i].Value.Uint64()
	}

	heapUsed := v(sampleHeapObjects)
	return MemorySnapshot{
		RSS:       v(sampleTotal),
		HeapUsed:  heapUsed,
		HeapTotal: heapUsed + v(sampleHeapUnused) + v(sampleHeapFree),
		Stack:     v(sampleHeapStacks) + v(sampleOSStacks),
		External:  v(sampleMetadataOther) + v(sampleOther),
	}
}

// Sub returns s minus before without clamping.
func (s MemorySnapshot) Sub(before MemorySnapshot) MemoryDelta {
	return MemoryDelta{
		RSS:       int64(s.RSS) - int64(before.RSS),
		HeapUsed:  int64(s.HeapUsed) - int64(before.HeapUsed),
		HeapTotal: int64(s.HeapTotal) - int64(before.HeapTotal),
		Stack:     int64(s.Stack) - int64(before.Stack),
		External:  int64(s.External) - int64(before.External),
	}
}
