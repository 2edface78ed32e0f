// Package anvil coordinates named, configurably-sized parallel execution
// arenas within a single process.
//
// Callers identify a unit of parallel work by a logical name; the Manager
// lazily creates one execution context per name, sized from an operator
// override string of the form "name:count,name:count", and reuses it for
// every later dispatch under that name. Each dispatch records lightweight
// per-item execution metadata into a tracker using worker-local buffers that
// are merged with a single lock acquisition per partition, keeping the hot
// path free of per-item synchronization.
//
//	m, err := anvil.New(anvil.WithOverrides("video_processing:4"))
//	if err != nil {
//	    // handle err
//	}
//	defer m.Release()
//
//	err = m.ParallelFor("video_processing", 0, len(frames), func(i int) error {
//	    return encode(frames[i])
//	})
//
// Arenas are created exactly once per name, regardless of how many
// goroutines race on first use. The Manager never spawns goroutines itself;
// all parallelism comes from the engine.Engine it is constructed with.
package anvil
