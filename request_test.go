package surfacefill

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/surfacefill/sim"
	"github.com/gogpu/surfacefill/surface"
)

func TestValidateRequest(t *testing.T) {
	d := newDevice(t, sim.Config{})
	s := newPoisoned(t, d, linearImage)
	start, end := s.FillableRange()

	unallocated, err := surface.New(linearImage)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		s    *surface.Surface
		r    Request
		ok   bool
	}{
		{"whole", s, Request{Value: 1, BitWidth: 32, Offset: start, Size: end - start}, true},
		{"empty", s, Request{BitWidth: 8, Offset: end}, true},
		{"24 does not divide 32", s, Request{BitWidth: 24, Offset: start, Size: 3}, false},
		{"zero width", s, Request{Offset: start, Size: 4}, false},
		{"width 48", s, Request{BitWidth: 48, Offset: start, Size: 6}, false},
		{"value too wide", s, Request{Value: 0x1_0000, BitWidth: 16, Offset: start, Size: 2}, false},
		{"64-bit value on 32-bit pixels", s, Request{Value: 1, BitWidth: 64, Offset: start, Size: 8}, false},
		{"size not multiple", s, Request{BitWidth: 16, Offset: start, Size: 3}, false},
		{"past end", s, Request{BitWidth: 8, Offset: end - 1, Size: 2}, false},
		{"nil surface", nil, Request{BitWidth: 8}, false},
		{"unallocated", unallocated, Request{BitWidth: 8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.s, tt.r)
			if tt.ok && err != nil {
				t.Errorf("validateRequest() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrBadParameter) {
				t.Errorf("validateRequest() = %v, want ErrBadParameter", err)
			}
		})
	}
}

func TestValidateRequestPrefix(t *testing.T) {
	d := newDevice(t, sim.Config{})
	s := newPoisoned(t, d, surface.Descriptor{
		Size:          gputypes.NewExtent2D(16, 2),
		BytesPerPixel: 1,
		HiddenSize:    32,
		ExtraSize:     32,
	})
	if err := validateRequest(s, Request{BitWidth: 8, Offset: 63, Size: 1}); !errors.Is(err, ErrBadParameter) {
		t.Errorf("fill of prefix byte error = %v, want ErrBadParameter", err)
	}
	if err := validateRequest(s, Request{BitWidth: 8, Offset: 64, Size: 1}); err != nil {
		t.Errorf("fill of first data byte: %v", err)
	}
}

func TestResizeFillValue(t *testing.T) {
	tests := []struct {
		name     string
		value    uint64
		bits     uint32
		native   uint32
		want     uint64
		wantBits uint32
		wantErr  bool
	}{
		{"8 to 32", 0xAB, 8, 32, 0xABABABAB, 32, false},
		{"16 to 64", 0x1234, 16, 64, 0x1234123412341234, 64, false},
		{"32 to 32", 0xDEADBEEF, 32, 32, 0xDEADBEEF, 32, false},
		{"24 to 48", 0xABCDEF, 24, 48, 0xABCDEFABCDEF, 48, false},
		{"high bits masked", 0xFF12, 8, 16, 0x1212, 16, false},
		{"64 to 64", 0x0102030405060708, 64, 64, 0x0102030405060708, 64, false},
		{"zero width", 1, 0, 32, 0, 0, true},
		{"not a multiple", 1, 24, 32, 0, 0, true},
		{"native beyond 64", 1, 32, 128, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bits, err := ResizeFillValue(tt.value, tt.bits, tt.native)
			if tt.wantErr {
				if !errors.Is(err, ErrBadParameter) {
					t.Fatalf("ResizeFillValue() error = %v, want ErrBadParameter", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want || bits != tt.wantBits {
				t.Errorf("ResizeFillValue() = %#x, %d; want %#x, %d", got, bits, tt.want, tt.wantBits)
			}
		})
	}
}

func TestTarget(t *testing.T) {
	if err := Broadcast.validate(1); err != nil {
		t.Errorf("Broadcast.validate(1) = %v", err)
	}
	if err := Subdevice(2).validate(2); !errors.Is(err, ErrBadParameter) {
		t.Errorf("Subdevice(2).validate(2) = %v", err)
	}
	if err := Target(-2).validate(4); !errors.Is(err, ErrBadParameter) {
		t.Errorf("Target(-2).validate(4) = %v", err)
	}
	if got := Broadcast.mask(3); got != 0b111 {
		t.Errorf("Broadcast.mask(3) = %#b", got)
	}
	if got := Subdevice(2).mask(3); got != 0b100 {
		t.Errorf("Subdevice(2).mask(3) = %#b", got)
	}
	if got := Broadcast.subdevices(3); len(got) != 3 || got[2] != 2 {
		t.Errorf("Broadcast.subdevices(3) = %v", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.EnableRasterClear || c.DisableAutoWait {
		t.Error("raster clear or manual wait enabled by default")
	}
	if c.WaitTimeout != DefaultWaitTimeout || c.MappingWindow != DefaultMappingWindow {
		t.Errorf("defaults not applied: %+v", c)
	}
	want := []string{StrategyRasterClear, StrategyCopyEngine, StrategyMapped}
	if len(c.Strategies) != len(want) {
		t.Fatalf("Strategies = %v", c.Strategies)
	}
	for i := range want {
		if c.Strategies[i] != want[i] {
			t.Errorf("Strategies = %v, want %v", c.Strategies, want)
		}
	}
}
