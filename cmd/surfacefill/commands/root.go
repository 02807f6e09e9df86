// Package commands implements the surfacefill command tree.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/surfacefill"
	"github.com/gogpu/surfacefill/internal/config"
	"github.com/gogpu/surfacefill/sim"
)

// app is the state shared by every command of one root.
type app struct {
	cfgFile    string
	verbose    bool
	subdevices int
	noRaster   bool

	cfg *config.Config
	p   *message.Printer
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd returns the surfacefill command tree.
func NewRootCmd() *cobra.Command {
	a := &app{p: message.NewPrinter(language.English)}

	root := &cobra.Command{
		Use:   "surfacefill",
		Short: "Fill accelerator surfaces with repeating patterns",
		Long: `surfacefill drives the surface fill engine against the software
accelerator. It fills pitch-linear and block-linear surfaces with the
mapped, copy-engine and raster-clear strategies, compares them and dumps
the result as a BMP image.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./surfacefill.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log strategy decisions")
	root.PersistentFlags().IntVar(&a.subdevices, "subdevices", 1, "device instances of the accelerator")
	root.PersistentFlags().BoolVar(&a.noRaster, "no-raster", false, "accelerator without the raster class")

	root.AddCommand(newFillCmd(a), newCompareCmd(a), newInfoCmd(a))
	return root
}

// setup loads the configuration, applies flag overrides and installs loggers.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("subdevices") {
		cfg.Device.Subdevices = a.subdevices
	}
	if flags.Changed("no-raster") {
		cfg.Device.NoRaster = a.noRaster
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Logging.Level))); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	l := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	surfacefill.SetLogger(l)
	sim.SetLogger(l)
	return nil
}

// device creates a software accelerator from the configuration.
func (a *app) device() *sim.Device {
	return sim.New(a.cfg.SimConfig())
}

// filler creates the named strategy, or the optimal filler for "" and "optimal".
func (a *app) filler(dev *sim.Device, name string) (surfacefill.Filler, error) {
	fc := a.cfg.FillConfig()
	switch name {
	case "", "optimal":
		return surfacefill.NewOptimalFiller(dev, fc), nil
	case surfacefill.StrategyRasterClear:
		return surfacefill.NewRasterClearFiller(dev, fc), nil
	case surfacefill.StrategyCopyEngine:
		return surfacefill.NewCopyEngineFiller(dev, fc), nil
	case surfacefill.StrategyMapped:
		return surfacefill.NewMappedFiller(dev, fc), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
