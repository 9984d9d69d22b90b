// Package throughput is the deterministic factory-physics calculator: given
// a balanced station assignment and an operating point (daily demand,
// operating hours, employees) it derives bottleneck cycle time, conveyor
// speed, work-in-process and the realizable daily output under a finite
// operating horizon. All functions are pure and safe to call concurrently
// for different operating points.
package throughput
