// Package metrics reduces per-file trial samples into the figures used to rank
// implementations against each other.
//
// A [Collector] is created per implementation and receives one [Sample] for
// every file that implementation successfully processed:
//
//	c := metrics.NewCollector("zstd-default", "MB/s")
//	c.Record(metrics.Sample{
//		Path:        path,
//		Elapsed:     elapsed,
//		Size:        1.5, // logical size in the unit's numerator (MB, MP)
//		RefBytes:    1_500_000,
//		OutputBytes: 412_337,
//		HasOutput:   true,
//	})
//	stats := c.Stats()
//
// # Throughput
//
// Throughput for a single trial is Size divided by the elapsed seconds. The
// [Stats] type reports both the arithmetic mean and the geometric mean of the
// per-trial throughputs; rankings use the geometric mean.
//
// # Compression ratios
//
// When every sample carried an output length, two ratios are reported:
//   - MeanRatio: the average of each file's own output/reference ratio, so every
//     file weighs the same regardless of its size.
//   - RatioOfMeans: total output bytes over total reference bytes, so every byte
//     weighs the same.
//
// # Empty collectors
//
// A collector that never received a sample yields Stats with Samples == 0 and all
// figures zero. Callers treat that as "no output" and print nothing.
//
// # Thread Safety
//
// Collectors are written by the single trial loop only and are not synchronized.
package metrics
