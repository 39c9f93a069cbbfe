// squeeze-sim runs a synthetic workload against an adaptive concurrency
// limit algorithm and prints the limit trajectory.
//
// Usage:
//
//	# Simulate with default settings
//	squeeze-sim simulate
//
//	# Simulate a scenario described in a YAML file
//	squeeze-sim simulate --config scenario.yaml
//
// It is a tool for comparing algorithms and tuning their parameters
// before putting them in front of real traffic.
package main

func main() {
	Execute()
}
