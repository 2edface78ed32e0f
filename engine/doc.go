// Package engine defines the execution-engine contract that anvil arenas are
// built on: creating sized execution contexts and partitioning index ranges
// across them. It also provides PoolEngine, the default implementation backed
// by persistent goroutine pools.
package engine
