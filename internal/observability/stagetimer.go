package observability

import (
	"runtime"
	"time"

	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

// StageTimer logs wall time and heap delta for one pipeline stage. Use it as
//
//	done := observability.StageTimer(log, "compose", "profile", prof.Name)
//	...
//	done(err)
//
// and the closing log line carries elapsed_ms, heap_before_mb, heap_after_mb
// and any fields given at the start.
func StageTimer(log *logger.Logger, stage string, fields ...any) func(error) {
	start := time.Now()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	return func(err error) {
		if log == nil {
			return
		}
		var after runtime.MemStats
		runtime.ReadMemStats(&after)

		kv := make([]any, 0, 8+len(fields))
		kv = append(kv,
			"stage", stage,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"heap_before_mb", mb(before.HeapAlloc),
			"heap_after_mb", mb(after.HeapAlloc),
		)
		kv = append(kv, fields...)
		if err != nil {
			kv = append(kv, "error", err.Error())
			log.Warn("stage finished", kv...)
			return
		}
		log.Info("stage finished", kv...)
	}
}

func mb(bytes uint64) float64 {
	return float64(bytes) / (1024 * 1024)
}
