package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/surfacefill"
)

type fillOptions struct {
	surface  surfaceFlags
	value    uint64
	bits     uint32
	offset   uint64
	size     uint64
	strategy string
	target   int
	dump     string
}

func newFillCmd(a *app) *cobra.Command {
	o := &fillOptions{}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a surface with a repeating value",
		Long: `Allocate a surface on the software accelerator and fill a byte range
with a value repeated at the given bit width.

--offset is relative to the start of the surface data. --size 0 fills
to the end of the data.`,
		Example: `  surfacefill fill --tiled --compressed --value 0
  surfacefill fill --value 0xAB --bits 8 --offset 3 --size 1000 --dump out.bmp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFill(cmd, o)
		},
	}
	fs := cmd.Flags()
	o.surface.register(fs)
	fs.Uint64Var(&o.value, "value", 0, "fill value")
	fs.Uint32Var(&o.bits, "bits", 32, "bit width of the value (8, 16, 24, 32, 64)")
	fs.Uint64Var(&o.offset, "offset", 0, "byte offset from the start of the data")
	fs.Uint64Var(&o.size, "size", 0, "bytes to fill (0 = to the end)")
	fs.StringVar(&o.strategy, "strategy", "optimal", "optimal, rasterclear, copyengine or mapped")
	fs.IntVar(&o.target, "target", int(surfacefill.Broadcast), "device instance to fill (-1 = broadcast)")
	fs.StringVar(&o.dump, "dump", "", "write the filled surface of the target instance as BMP")
	return cmd
}

func (a *app) runFill(cmd *cobra.Command, o *fillOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	dev := a.device()
	defer dev.Close()

	s, err := o.surface.allocate(dev)
	if err != nil {
		return err
	}
	req, err := o.request(s.DataOffset(), s.DataSize())
	if err != nil {
		return err
	}

	f, err := a.filler(dev, o.strategy)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Cleanup(); cerr != nil {
			surfacefill.Logger().Warn("surfacefill: cleanup failed", "err", cerr)
		}
	}()
	if err := f.SetTarget(surfacefill.Target(o.target)); err != nil {
		return err
	}

	name := f.Name()
	if opt, ok := f.(*surfacefill.OptimalFiller); ok {
		if name, err = opt.Strategy(s, req); err != nil {
			return err
		}
	} else if !f.IsSupported(s, req) {
		return fmt.Errorf("%w: %s cannot fill %v with %v", surfacefill.ErrUnsupportedHardwareFeature, name, s, req)
	}

	start := time.Now()
	if err := f.FillRange(ctx, s, req); err != nil {
		return err
	}
	if err := f.Wait(ctx); err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := dev.Stats()
	a.p.Fprintf(out, "surface:   %v\n", s)
	a.p.Fprintf(out, "request:   %v\n", req)
	a.p.Fprintf(out, "strategy:  %s\n", name)
	a.p.Fprintf(out, "filled:    %d bytes in %v\n", req.Size, elapsed.Round(time.Microsecond))
	a.p.Fprintf(out, "work:      %d segments, %d copy launches, %d clears (%d fast), %d mappings\n",
		st.Segments, st.CopyLaunches, st.Clears, st.FastClears, st.Mappings)
	if st.Faults > 0 {
		return fmt.Errorf("accelerator reported %d faults", st.Faults)
	}

	if o.dump != "" {
		sub := o.target
		if sub == int(surfacefill.Broadcast) {
			sub = 0
		}
		if err := dumpBMP(o.dump, dev, s, sub); err != nil {
			return err
		}
		a.p.Fprintf(out, "dump:      %s\n", o.dump)
	}
	return nil
}

// request converts the relative flag range to allocation offsets.
func (o *fillOptions) request(dataOffset, dataSize uint64) (surfacefill.Request, error) {
	if o.offset > dataSize {
		return surfacefill.Request{}, fmt.Errorf("%w: offset %d beyond %d data bytes",
			surfacefill.ErrBadParameter, o.offset, dataSize)
	}
	size := o.size
	if size == 0 {
		size = dataSize - o.offset
		if pb := uint64(o.bits / 8); pb > 0 {
			size -= size % pb
		}
	}
	return surfacefill.Request{
		Value:    o.value,
		BitWidth: o.bits,
		Offset:   dataOffset + o.offset,
		Size:     size,
	}, nil
}
