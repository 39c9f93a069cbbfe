package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ThomWright/squeeze/limit"
)

var simulateFlags struct {
	every int
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scenario and print the limit trajectory",
	Long: `Run a scenario and print the limit trajectory.

Each tick the clients offer their full concurrency, the limiter admits up to
the current limit, and the server model answers with a latency that grows once
concurrency passes its capacity. Above the overload threshold requests fail
and the algorithm sees overload outcomes.

Examples:
  # Built-in scenario with the gradient algorithm
  squeeze-sim simulate

  # A scenario from a file, printing every 10th tick
  squeeze-sim simulate --config scenario.yaml --every 10`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simulateFlags.every, "every", 1, "print every Nth tick")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cfgFile)
	if err != nil {
		return err
	}

	alg, err := sc.algorithm()
	if err != nil {
		return err
	}

	every := simulateFlags.every
	if every < 1 {
		every = 1
	}

	return simulate(cmd.OutOrStdout(), sc, alg, every)
}

func simulate(w io.Writer, sc *scenario, alg limit.Algorithm, every int) error {
	tick := sc.Tick.std()
	ticks := int(sc.Duration.std() / tick)

	fmt.Fprintf(w, "algorithm=%s clients=%d capacity=%d overload_at=%d base_latency=%s\n",
		sc.Algorithm.Kind, sc.Workload.Clients, sc.Server.Capacity, sc.Server.OverloadAt, sc.Server.BaseLatency.std())

	rejected := 0
	for i := 0; i < ticks; i++ {
		l := alg.Limit()

		// The clients offer their full concurrency; the limiter admits up
		// to the current limit.
		inflight := sc.Workload.Clients
		if inflight > l {
			rejected += inflight - l
			inflight = l
		}

		latency, outcome := sc.Server.respond(inflight)
		newLimit := alg.Update(limit.Sample{
			Latency:  latency,
			Inflight: inflight,
			Outcome:  outcome,
		})

		if i%every == 0 {
			fmt.Fprintf(w, "t=%-8s limit=%-5d inflight=%-5d latency=%-10s outcome=%s\n",
				time.Duration(i+1)*tick, newLimit, inflight, latency, outcome)
		}
	}

	fmt.Fprintf(w, "final limit=%d rejected=%d\n", alg.Limit(), rejected)
	return nil
}

// respond models the server's reaction to a given concurrency: latency grows
// linearly past capacity, and past the overload threshold requests fail.
func (s serverConfig) respond(inflight int) (time.Duration, limit.Outcome) {
	latency := s.BaseLatency.std()
	if inflight > s.Capacity {
		latency = time.Duration(float64(latency) * float64(inflight) / float64(s.Capacity))
	}

	if inflight > s.OverloadAt {
		return latency, limit.Overload
	}
	return latency, limit.Success
}
