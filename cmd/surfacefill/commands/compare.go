package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/surfacefill"
	"github.com/gogpu/surfacefill/sim"
	"github.com/gogpu/surfacefill/surface"
)

// compareResult is the outcome of one strategy in a comparison.
type compareResult struct {
	strategy  string
	supported bool
	mismatch  int64
	elapsed   time.Duration
	err       error
}

func newCompareCmd(a *app) *cobra.Command {
	o := &fillOptions{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run the same fill with every strategy and compare the memory",
		Long: `Fill identical surfaces with each configured strategy on a fresh
accelerator and compare every instance against a reference fill computed
on the CPU. Strategies that do not support the request are reported and
skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCompare(cmd, o)
		},
	}
	fs := cmd.Flags()
	o.surface.register(fs)
	fs.Uint64Var(&o.value, "value", 0xDEADBEEF, "fill value")
	fs.Uint32Var(&o.bits, "bits", 32, "bit width of the value (8, 16, 24, 32, 64)")
	fs.Uint64Var(&o.offset, "offset", 0, "byte offset from the start of the data")
	fs.Uint64Var(&o.size, "size", 0, "bytes to fill (0 = to the end)")
	return cmd
}

func (a *app) runCompare(cmd *cobra.Command, o *fillOptions) error {
	out := cmd.OutOrStdout()
	var failed int
	for _, name := range a.cfg.FillConfig().Strategies {
		r := a.compareOne(cmd, o, name)
		switch {
		case r.err != nil:
			failed++
			a.p.Fprintf(out, "%-12s error: %v\n", r.strategy, r.err)
		case !r.supported:
			a.p.Fprintf(out, "%-12s unsupported\n", r.strategy)
		case r.mismatch >= 0:
			failed++
			a.p.Fprintf(out, "%-12s MISMATCH at byte %#x\n", r.strategy, r.mismatch)
		default:
			a.p.Fprintf(out, "%-12s ok in %v\n", r.strategy, r.elapsed.Round(time.Microsecond))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d strategies failed", failed)
	}
	return nil
}

func (a *app) compareOne(cmd *cobra.Command, o *fillOptions, name string) compareResult {
	ctx := cmd.Context()
	r := compareResult{strategy: name, mismatch: -1}

	dev := a.device()
	defer dev.Close()

	s, err := o.surface.allocate(dev)
	if err != nil {
		r.err = err
		return r
	}
	req, err := o.request(s.DataOffset(), s.DataSize())
	if err != nil {
		r.err = err
		return r
	}
	f, err := a.filler(dev, name)
	if err != nil {
		r.err = err
		return r
	}
	defer f.Cleanup()

	if !f.IsSupported(s, req) {
		return r
	}
	r.supported = true

	want, err := reference(dev, s, req)
	if err != nil {
		r.err = err
		return r
	}

	start := time.Now()
	if err := f.FillRange(ctx, s, req); err != nil {
		r.err = err
		return r
	}
	if err := f.Wait(ctx); err != nil {
		r.err = err
		return r
	}
	r.elapsed = time.Since(start)

	for sub := range dev.NumSubdevices() {
		got, err := dev.ReadBack(s, sub)
		if err != nil {
			r.err = err
			return r
		}
		if i := firstDiff(got, want); i >= 0 {
			r.mismatch = int64(i)
			return r
		}
	}
	return r
}

// reference returns the allocation contents of s after a correct fill.
func reference(dev *sim.Device, s *surface.Surface, req surfacefill.Request) ([]byte, error) {
	mem, err := dev.ReadBack(s, 0)
	if err != nil {
		return nil, err
	}
	p := req.PatternBytes()
	for i := req.Offset; i < req.Offset+req.Size; i++ {
		mem[i] = byte(req.Value >> (8 * ((i - req.Offset) % p)))
	}
	return mem, nil
}

func firstDiff(a, b []byte) int {
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	return -1
}
