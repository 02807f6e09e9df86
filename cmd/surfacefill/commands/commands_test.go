package commands

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

// run executes the command tree with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant string
	}{
		{
			name: "default",
			args: []string{"info"},
			want: []string{"Software", "CopyEngine, Raster", "rasterclear -> copyengine -> mapped", "268,435,456 bytes"},
		},
		{
			name:    "no raster",
			args:    []string{"info", "--no-raster", "--subdevices", "3"},
			want:    []string{"Instances:    3", "Classes:      CopyEngine\n"},
			notWant: "Raster\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			if tt.notWant != "" && strings.Contains(out, tt.notWant) {
				t.Errorf("output contains %q:\n%s", tt.notWant, out)
			}
		})
	}
}

func TestFillStrategy(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"tiled zero fast clear", []string{"--tiled", "--compressed", "--value", "0"}, "strategy:  rasterclear"},
		{"unaligned offset", []string{"--value", "0xAB", "--bits", "8", "--offset", "3", "--size", "1000"}, "strategy:  copyengine"},
		{"forced mapped", []string{"--strategy", "mapped", "--coherent"}, "strategy:  mapped"},
		{"broadcast", []string{"--subdevices", "2", "--value", "7"}, "strategy:  rasterclear"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, append([]string{"fill"}, tt.args...)...)
			if err != nil {
				t.Fatalf("Execute() = %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestFillErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown strategy", []string{"--strategy", "magic"}},
		{"bad bit width", []string{"--bits", "12"}},
		{"value too wide", []string{"--bits", "8", "--value", "0x100"}},
		{"offset past end", []string{"--width", "4", "--height", "4", "--offset", "1000"}},
		{"target out of range", []string{"--target", "5"}},
		{"unsupported forced strategy", []string{"--strategy", "rasterclear", "--buffer"}},
		{"extra argument", []string{"surplus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, append([]string{"fill"}, tt.args...)...); err == nil {
				t.Error("Execute() = nil error")
			}
		})
	}
}

func TestFillDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bmp")
	_, _, err := run(t, "fill", "--width", "16", "--height", "8", "--value", "0x11223344",
		"--offset", "64", "--size", "64", "--strategy", "mapped", "--dump", path)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("bmp.Decode: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 64 || got.Y != 8 {
		t.Fatalf("image size = %v, want 64x8", got)
	}

	gray := func(x, y int) uint8 {
		return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
	}
	// Row 0 is untouched, row 1 holds the little-endian pattern.
	if g := gray(0, 0); g != 0 {
		t.Errorf("pixel (0,0) = %#x, want 0", g)
	}
	for x, want := range []uint8{0x44, 0x33, 0x22, 0x11} {
		if g := gray(x, 1); g != want {
			t.Errorf("pixel (%d,1) = %#x, want %#x", x, g, want)
		}
	}
	if g := gray(0, 2); g != 0 {
		t.Errorf("pixel (0,2) = %#x, want 0", g)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "all strategies",
			args: []string{"--poison", "0x5A"},
			want: []string{"rasterclear  ok", "copyengine   ok", "mapped       ok"},
		},
		{
			name: "tiled 64-bit broadcast",
			args: []string{"--tiled", "--bpp", "8", "--bits", "64", "--value", "0x0102030405060708", "--subdevices", "2"},
			want: []string{"rasterclear  ok", "copyengine   ok", "mapped       ok"},
		},
		{
			name: "24-bit",
			args: []string{"--bpp", "3", "--bits", "24", "--value", "0xABCDEF"},
			want: []string{"rasterclear  unsupported", "copyengine   unsupported", "mapped       ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, append([]string{"compare"}, tt.args...)...)
			if err != nil {
				t.Fatalf("Execute() = %v\n%s", err, out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "filler:\n  strategies: [mapped]\n  enable_raster_clear: false\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "--config", path, "fill", "--tiled", "--compressed")
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if !strings.Contains(out, "strategy:  mapped") {
		t.Errorf("output missing mapped strategy:\n%s", out)
	}
}

func TestVerboseLogging(t *testing.T) {
	_, stderr, err := run(t, "-v", "fill", "--value", "1")
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if !strings.Contains(stderr, "strategy selected") {
		t.Errorf("stderr missing strategy log:\n%s", stderr)
	}
}
