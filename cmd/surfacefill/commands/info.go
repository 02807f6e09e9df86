package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/surfacefill/hal"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show accelerator and filler configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInfo(cmd)
		},
	}
}

func (a *app) runInfo(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	dev := a.device()
	defer dev.Close()

	info := dev.Info()
	a.p.Fprintf(out, "Adapter:      %s (%v)\n", info.Name, info.Type)
	a.p.Fprintf(out, "Instances:    %d\n", dev.NumSubdevices())

	var classes []string
	for _, c := range []hal.ClassID{hal.ClassCopyEngine, hal.ClassRaster} {
		if dev.HasClass(c) {
			classes = append(classes, c.String())
		}
	}
	if len(classes) == 0 {
		classes = append(classes, "none")
	}
	a.p.Fprintf(out, "Classes:      %s\n", strings.Join(classes, ", "))
	if dev.ClearColorTable() == nil {
		a.p.Fprintf(out, "Clear table:  none\n")
	} else {
		a.p.Fprintf(out, "Clear table:  %d slots\n", a.cfg.Device.ClearTableSlots)
	}
	a.p.Fprintf(out, "CPU mapping:  device-local %v\n", !a.cfg.Device.VidmemNotMappable)

	fc := a.cfg.FillConfig()
	a.p.Fprintf(out, "\nStrategies:   %s\n", strings.Join(fc.Strategies, " -> "))
	a.p.Fprintf(out, "Raster clear: %v\n", fc.EnableRasterClear)
	a.p.Fprintf(out, "Auto-wait:    %v (timeout %v)\n", !fc.DisableAutoWait, fc.WaitTimeout)
	a.p.Fprintf(out, "Copy chunk:   %d bytes\n", fc.MaxCopyChunk)
	a.p.Fprintf(out, "Map window:   %d bytes\n", fc.MappingWindow)
	a.p.Fprintf(out, "Clear chunk:  %d x %d pixels\n", fc.MaxClearWidth, fc.MaxClearHeight)
	return nil
}
