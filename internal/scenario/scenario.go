// Package scenario replays a YAML list of ledger actions against a registry,
// the way a block of transactions would arrive, and reports each outcome.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"okinoko_ledger/bank"
	"okinoko_ledger/contract"
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// ErrUnexpectedOutcome marks a step whose result did not match its expectation.
var ErrUnexpectedOutcome = errors.New("scenario: unexpected outcome")

type Step struct {
	Caller   sdk.Address `yaml:"caller"`
	Time     int64       `yaml:"time"`
	Height   uint64      `yaml:"height"`
	Instance sdk.Address `yaml:"instance"`
	Action   string      `yaml:"action"`
	Payload  string      `yaml:"payload"`
	// Expect is "ok" (default), "error" or an error text the failure must contain.
	Expect string `yaml:"expect"`
}

type Scenario struct {
	Name     string            `yaml:"name"`
	Balances map[string]string `yaml:"balances"`
	Steps    []Step            `yaml:"steps"`
}

// Result is the outcome of one replayed step.
type Result struct {
	Index  int
	Step   Step
	Output string
	Err    error
	Passed bool
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, st := range s.Steps {
		if st.Action == "" {
			return nil, fmt.Errorf("parse scenario: step %d has no action", i+1)
		}
		if st.Caller.IsZero() {
			return nil, fmt.Errorf("parse scenario: step %d has no caller", i+1)
		}
	}
	return &s, nil
}

func Load(path string) (*Scenario, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(buf)
}

// Fund mints the scenario's opening balances into b.
func (s *Scenario) Fund(b *bank.Memory) error {
	for addr, raw := range s.Balances {
		amount, err := dao.ParseAmount(raw)
		if err != nil {
			return fmt.Errorf("balance of %s: %w", addr, err)
		}
		if err := b.Mint(sdk.Address(addr), amount); err != nil {
			return err
		}
	}
	return nil
}

type Runner struct {
	factory *contract.Factory
	logger  *slog.Logger
	out     io.Writer
}

func NewRunner(factory *contract.Factory, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{factory: factory, logger: logger.With("component", "scenario"), out: out}
}

// Run replays every step in order. Steps without an instance target the
// instance created most recently in the run. It keeps going after a
// mismatch and returns ErrUnexpectedOutcome when any step failed its expectation.
func (r *Runner) Run(ctx context.Context, s *Scenario) ([]Result, error) {
	var (
		results []Result
		current sdk.Address
		failed  int
	)
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		target := st.Instance
		if target == "" {
			target = current
		}
		env := sdk.NewEnv(st.Caller, st.Height, st.Time)
		if st.Height == 0 {
			env.BlockHeight = uint64(i + 1)
		}
		env.TxId = fmt.Sprintf("scenario-%d", i+1)

		out, err := r.factory.Dispatch(ctx, env, target, st.Action, st.Payload)
		if err == nil && st.Action == contract.ActionCreateInstance {
			current = sdk.Address(out)
		}
		res := Result{Index: i + 1, Step: st, Output: out, Err: err, Passed: matches(st.Expect, err)}
		results = append(results, res)
		if !res.Passed {
			failed++
		}
		r.report(res)
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d steps", ErrUnexpectedOutcome, failed, len(s.Steps))
	}
	return results, nil
}

func matches(expect string, err error) bool {
	switch strings.TrimSpace(expect) {
	case "", "ok":
		return err == nil
	case "error":
		return err != nil
	default:
		return err != nil && strings.Contains(err.Error(), expect)
	}
}

func (r *Runner) report(res Result) {
	mark := "ok  "
	if !res.Passed {
		mark = "FAIL"
	}
	detail := res.Output
	if res.Err != nil {
		detail = "error: " + res.Err.Error()
	}
	fmt.Fprintf(r.out, "%s %3d %-20s %-16s %s\n", mark, res.Index, res.Step.Action, res.Step.Caller, detail)
	if res.Passed {
		r.logger.Debug("step done", "step", res.Index, "action", res.Step.Action, "error", res.Err)
	} else {
		r.logger.Warn("step did not match expectation", "step", res.Index, "action", res.Step.Action, "expect", res.Step.Expect, "error", res.Err)
	}
}
