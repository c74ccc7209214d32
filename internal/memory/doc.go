// Package memory keeps the indexer inside its container memory limit.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT (bytes, usually fed
// from the Kubernetes Downward API) and MEMORY_RATIO (default 0.85). An
// explicit GOMEMLIMIT wins.
//
// A [Guard] samples the heap against that limit while a reconciliation runs.
// Decoding a large TIFF to find its dimensions can allocate hundreds of
// megabytes, so extraction workers call [Guard.Wait] before each file: above
// the critical mark new extractions block until usage falls back under the
// high-water mark.
//
//	guard := memory.NewGuard(memory.DefaultConfig())
//	go guard.Run(ctx)
//	...
//	if err := guard.Wait(ctx); err != nil {
//	    return err
//	}
//
// Without a limit the guard never pauses.
package memory
