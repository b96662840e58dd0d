package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/memkit/mem/alloc"
)

var (
	stressBudget  int
	stressOps     int
	stressMaxSize int
	stressSeed    uint64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressBudget, "budget", 1<<20, "Quota budget in bytes, headers included")
	cmd.Flags().IntVar(&stressOps, "ops", 10000, "Number of operations")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 4096, "Largest request size in bytes")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 1, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a random workload against a budgeted allocator",
		Long: `The stress command drives a random mix of allocations, reallocations
and frees through a quota allocator. After every step it checks that the bytes
charged equal the live blocks plus their headers and never exceed the budget.

Example:
  memctl stress
  memctl stress --budget 65536 --ops 100000 --max-size 1024 --seed 42
  memctl stress --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

// StressResult summarizes a stress run.
type StressResult struct {
	Context   string `json:"context"`
	Seed      uint64 `json:"seed"`
	Ops       int    `json:"ops"`
	Allocs    int    `json:"allocs"`
	Reallocs  int    `json:"reallocs"`
	Frees     int    `json:"frees"`
	Refused   int    `json:"refused"`
	PeakBytes int    `json:"peak_bytes"`
	PeakUsed  int    `json:"peak_used"`
	Budget    int    `json:"budget"`
}

func runStress() error {
	switch {
	case stressBudget <= 0:
		return fmt.Errorf("--budget must be positive, got %d", stressBudget)
	case stressOps < 0:
		return fmt.Errorf("--ops must not be negative, got %d", stressOps)
	case stressMaxSize < 0:
		return fmt.Errorf("--max-size must not be negative, got %d", stressMaxSize)
	}

	ctx := alloc.NewQuota(stressBudget, alloc.WithLogger(logger))
	rng := rand.New(rand.NewPCG(stressSeed, stressSeed^0x9e3779b97f4a7c15))
	res := StressResult{Context: ctx.ID().String(), Seed: stressSeed, Ops: stressOps, Budget: stressBudget}

	var live []*alloc.Block
	for step := range stressOps {
		switch op := rng.IntN(3); {
		case op == 0 || len(live) == 0:
			b, err := ctx.Allocate(rng.IntN(stressMaxSize + 1))
			if err != nil {
				if !errors.Is(err, alloc.ErrExhausted) {
					return err
				}
				res.Refused++
				break
			}
			live = append(live, b)
		case op == 1:
			b := live[rng.IntN(len(live))]
			if _, err := ctx.Reallocate(b, rng.IntN(stressMaxSize+1)); err != nil {
				if !errors.Is(err, alloc.ErrExhausted) {
					return err
				}
				res.Refused++
			}
		default:
			i := rng.IntN(len(live))
			ctx.Free(live[i])
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}

		used, err := checkCharge(ctx, live)
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		res.PeakUsed = max(res.PeakUsed, used)
	}

	for _, b := range live {
		ctx.Free(b)
	}
	if _, err := checkCharge(ctx, nil); err != nil {
		return fmt.Errorf("after teardown: %w", err)
	}

	s := ctx.Stats()
	res.Allocs, res.Reallocs, res.Frees, res.PeakBytes = s.Allocs, s.Reallocs, s.Frees, s.PeakBytes
	ctx.Destroy()
	logger.Debug("stress finished", "ctx", res.Context, "refused", res.Refused)

	if jsonOut {
		return printJSON(res)
	}
	printStress(res)
	return nil
}

// checkCharge verifies the quota invariant: bytes charged equal the live
// blocks plus their headers and stay within the budget.
func checkCharge(ctx *alloc.Context, live []*alloc.Block) (int, error) {
	used, limit, _ := ctx.Budget()
	want := 0
	for _, b := range live {
		want += b.Len() + alloc.HeaderSize
	}
	if used != want {
		return used, fmt.Errorf("quota charges %d bytes, live blocks account for %d", used, want)
	}
	if used > limit {
		return used, fmt.Errorf("quota charges %d bytes over a %d-byte budget", used, limit)
	}
	return used, nil
}

func printStress(r StressResult) {
	if quiet {
		return
	}
	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stdout, "Context:     %s\n", r.Context)
	p.Fprintf(os.Stdout, "Seed:        %d\n", r.Seed)
	p.Fprintf(os.Stdout, "Operations:  %d\n", r.Ops)
	p.Fprintf(os.Stdout, "Allocs:      %d\n", r.Allocs)
	p.Fprintf(os.Stdout, "Reallocs:    %d\n", r.Reallocs)
	p.Fprintf(os.Stdout, "Frees:       %d\n", r.Frees)
	p.Fprintf(os.Stdout, "Refused:     %d\n", r.Refused)
	p.Fprintf(os.Stdout, "Peak bytes:  %d\n", r.PeakBytes)
	p.Fprintf(os.Stdout, "Peak charge: %d of %d\n", r.PeakUsed, r.Budget)
}
