package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/refcount"
	"github.com/joshuapare/memkit/mem/resource"
	"github.com/joshuapare/memkit/pkg/memkit"
)

func init() {
	rootCmd.AddCommand(newScenariosCmd())
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "Run the acceptance scenarios",
		Long: `The scenarios command runs the allocator and ownership acceptance
scenarios and reports each one. It exits non-zero if any scenario fails.

  A  budget refuses an oversized request until memory is freed
  B  the last strong reference finalizes exactly once
  C  promoting an expired weak reference yields an invalid handle
  D  an empty resource never allocates a counter

Example:
  memctl scenarios
  memctl scenarios --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(scenarios)
		},
	}
}

type scenario struct {
	ID   string
	Name string
	Run  func(l *slog.Logger) error
}

// ScenarioResult is one scenario outcome.
type ScenarioResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

var scenarios = []scenario{
	{"A", "budget refuses until free", scenarioBudget},
	{"B", "last strong reference finalizes once", scenarioStrong},
	{"C", "expired weak promotes to invalid", scenarioWeak},
	{"D", "empty resource never allocates", scenarioEmptyResource},
}

func runScenarios(list []scenario) error {
	results := make([]ScenarioResult, 0, len(list))
	failed := 0
	for _, sc := range list {
		printVerbose("Running scenario %s\n", sc.ID)
		res := ScenarioResult{ID: sc.ID, Name: sc.Name, Passed: true}
		if err := runScenario(sc); err != nil {
			res.Passed = false
			res.Error = err.Error()
			failed++
			logger.Error("scenario failed", "scenario", sc.ID, "err", err)
		}
		results = append(results, res)
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			status := "PASS"
			if !r.Passed {
				status = "FAIL"
			}
			printInfo("%s  %s  %s\n", status, r.ID, r.Name)
			if r.Error != "" {
				printInfo("      %s\n", r.Error)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(list))
	}
	return nil
}

// runScenario converts contract-violation panics into failures.
func runScenario(sc scenario) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sc.Run(logger.With("scenario", sc.ID))
}

func scenarioBudget(l *slog.Logger) error {
	a := memkit.CreateAllocator(memkit.WithBudget(1024), memkit.WithLogger(l))

	p1, err := memkit.Allocate(a, 256)
	if err != nil {
		return fmt.Errorf("first 256-byte allocation: %w", err)
	}
	p2, err := memkit.Allocate(a, 800)
	if err == nil {
		return errors.New("800-byte allocation succeeded past the budget")
	}
	if !errors.Is(err, memkit.ErrQuotaExceeded) || p2 != nil {
		return fmt.Errorf("800-byte allocation: want quota exceeded, got %w", err)
	}

	memkit.Free(a, p1)
	p2, err = memkit.Allocate(a, 800)
	if err != nil {
		return fmt.Errorf("800-byte allocation after free: %w", err)
	}
	memkit.Free(a, p2)
	memkit.DestroyAllocator(a)
	return nil
}

func scenarioStrong(l *slog.Logger) error {
	calls := 0
	fin := refcount.FinalizerFunc[string](func(string) { calls++ })

	s1 := refcount.NewSharedCount("payload", fin)
	s2 := s1.Clone()
	s1.Release()
	if calls != 0 || s2.UseCount() != 1 {
		return fmt.Errorf("after first release: %d finalize calls, strong=%d", calls, s2.UseCount())
	}
	s2.Release()
	if calls != 1 {
		return fmt.Errorf("want 1 finalize call, got %d", calls)
	}
	return nil
}

func scenarioWeak(l *slog.Logger) error {
	ctx := alloc.New(alloc.WithLogger(l))
	calls := 0
	fin := refcount.FinalizerFunc[string](func(string) { calls++ })

	s1, err := refcount.NewSharedCountIn(ctx, "payload", fin)
	if err != nil {
		return err
	}
	w := s1.Weak()
	s1.Release()
	if calls != 1 {
		return fmt.Errorf("want finalize on last strong release, got %d calls", calls)
	}

	s3 := w.Promote()
	if s3.IsValid() {
		return errors.New("promotion of an expired weak reference is valid")
	}
	s3.Release()
	w.Release()
	if calls != 1 {
		return fmt.Errorf("want 1 finalize call, got %d", calls)
	}
	ctx.Destroy()
	return nil
}

func scenarioEmptyResource(l *slog.Logger) error {
	ctx := alloc.New(alloc.WithLogger(l))
	calls := 0
	fin := refcount.FinalizerFunc[int](func(int) { calls++ })

	var r resource.Handle[int, refcount.FinalizerFunc[int]]
	if !r.IsNull() || r.Get() != 0 {
		return fmt.Errorf("empty resource holds %d", r.Get())
	}
	c := r.Clone()
	if n := ctx.Stats().CounterRecords; n != 0 {
		return fmt.Errorf("copying an empty resource allocated %d counters", n)
	}
	c.Release()
	r.Release()
	if calls != 0 {
		return fmt.Errorf("releasing an empty resource finalized %d times", calls)
	}

	h := resource.NewHandle(ctx, 0, fin)
	if !h.IsNull() || ctx.Stats().CounterRecords != 0 {
		return errors.New("wrapping the null value allocated a counter")
	}
	ctx.Destroy()
	return nil
}
