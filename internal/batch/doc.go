// Package batch partitions a run's media references into fixed-size batches
// and drives them through the executor.
//
// Batches run strictly in input order; items within a batch fan out
// concurrently and fan back in preserving item order, so aggregate results
// are deterministic regardless of network timing. Between batches the
// scheduler enforces the sustained rate limit and honours the cooperative
// pause gate and abort signal owned by the run controller.
package batch
