package gamma

import (
	"errors"
	"io"
	"math"
	"testing"

	log "github.com/sirupsen/logrus"
)

type fakePrimitive struct {
	inits    int
	initErr  error
	reject   bool
	written  []Ramp
	current  Ramp
	readable bool
}

func (p *fakePrimitive) Init() error {
	p.inits++
	return p.initErr
}

func (p *fakePrimitive) SetRamp(ramp *Ramp) bool {
	if p.reject {
		return false
	}
	p.written = append(p.written, *ramp)
	p.current = *ramp
	return true
}

func (p *fakePrimitive) GetRamp(ramp *Ramp) bool {
	if !p.readable {
		return false
	}
	*ramp = p.current
	return true
}

func TestClamp(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: math.MinInt, want: 0},
		{level: -1, want: 0},
		{level: 0, want: 0},
		{level: 130, want: 130},
		{level: 255, want: 255},
		{level: 256, want: 255},
		{level: math.MaxInt32, want: 255},
	}

	for _, tt := range tests {
		if got := Clamp(tt.level); got != tt.want {
			t.Errorf("Clamp(%d) = %d; want %d", tt.level, got, tt.want)
		}
	}
}

func TestBuildRampFormula(t *testing.T) {
	for _, level := range []int{-400, -1, 0, 1, 10, 127, 128, 129, 130, 200, 255, 256, 9999} {
		ramp := BuildRamp(level)
		clamped := Clamp(level)
		for i := 0; i < RampSize; i++ {
			want := uint16(min(i*(clamped+128), 65535))
			if ramp.Red[i] != want || ramp.Green[i] != want || ramp.Blue[i] != want {
				t.Fatalf("BuildRamp(%d)[%d] = (%d, %d, %d); want %d on every channel",
					level, i, ramp.Red[i], ramp.Green[i], ramp.Blue[i], want)
			}
		}
	}
}

func TestBuildRampSaturates(t *testing.T) {
	ramp := BuildRamp(255)
	if ramp.Red[255] != math.MaxUint16 {
		t.Errorf("top entry at level 255 = %d; want %d", ramp.Red[255], math.MaxUint16)
	}
	if ramp.Red[0] != 0 {
		t.Errorf("bottom entry = %d; want 0", ramp.Red[0])
	}
}

func TestRampLevel(t *testing.T) {
	for _, level := range []int{0, 10, 129, 130, 255} {
		got, ok := BuildRamp(level).Level()
		if !ok || got != level {
			t.Errorf("BuildRamp(%d).Level() = %d, %t; want %d, true", level, got, ok, level)
		}
	}

	skewed := BuildRamp(130)
	skewed.Blue[200] = 1
	if _, ok := skewed.Level(); ok {
		t.Error("Level() on a ramp with differing channels should not be ok")
	}

	if _, ok := (Ramp{}).Level(); ok {
		t.Error("Level() on a zero ramp should not be ok")
	}
}

func TestOpenInitializesOnce(t *testing.T) {
	log.SetOutput(io.Discard)
	prim := &fakePrimitive{}
	device, err := Open(prim)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := device.Init(); err != nil {
			t.Fatalf("Init returned error: %v", err)
		}
	}
	if prim.inits != 1 {
		t.Errorf("primitive initialized %d times; want 1", prim.inits)
	}
}

func TestOpenFailure(t *testing.T) {
	prim := &fakePrimitive{initErr: errors.New("no display")}
	if _, err := Open(prim); err == nil {
		t.Fatal("Open should return the primitive's init error")
	}
}

func TestSetBrightnessClampsBeforeWrite(t *testing.T) {
	log.SetOutput(io.Discard)
	tests := map[string]struct {
		level int
		want  int
	}{
		"below range": {level: -20, want: 0},
		"in range":    {level: 130, want: 130},
		"above range": {level: 1000, want: 255},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			prim := &fakePrimitive{}
			device, _ := Open(prim)
			if !device.SetBrightness(tt.level) {
				t.Fatal("SetBrightness returned false on an accepting primitive")
			}
			if len(prim.written) != 1 {
				t.Fatalf("primitive received %d writes; want 1", len(prim.written))
			}
			if prim.written[0] != BuildRamp(tt.want) {
				t.Errorf("written ramp does not match level %d", tt.want)
			}
		})
	}
}

func TestSetBrightnessRejected(t *testing.T) {
	log.SetOutput(io.Discard)
	prim := &fakePrimitive{reject: true}
	device, _ := Open(prim)

	if device.SetBrightness(50) {
		t.Error("SetBrightness should report a rejected write")
	}
	device.SetBrightness(60)

	stats := device.Stats()
	if stats.Writes != 2 || stats.Rejected != 2 {
		t.Errorf("Stats() = %+v; want 2 writes, 2 rejected", stats)
	}
}

func TestBrightness(t *testing.T) {
	log.SetOutput(io.Discard)
	prim := &fakePrimitive{readable: true}
	device, _ := Open(prim)
	device.SetBrightness(42)

	ramp, err := device.Brightness()
	if err != nil {
		t.Fatalf("Brightness returned error: %v", err)
	}
	if level, ok := ramp.Level(); !ok || level != 42 {
		t.Errorf("read back level %d, %t; want 42, true", level, ok)
	}

	prim.readable = false
	if _, err := device.Brightness(); !errors.Is(err, ErrReadRejected) {
		t.Errorf("Brightness error = %v; want ErrReadRejected", err)
	}
}

func TestResample(t *testing.T) {
	tests := []struct {
		i, from, to int
		want        int
	}{
		{i: 0, from: 256, to: 256, want: 0},
		{i: 255, from: 256, to: 256, want: 255},
		{i: 1023, from: 1024, to: 256, want: 255},
		{i: 0, from: 1024, to: 256, want: 0},
		{i: 255, from: 256, to: 1024, want: 1023},
		{i: 0, from: 1, to: 256, want: 0},
	}
	for _, tt := range tests {
		if got := resample(tt.i, tt.from, tt.to); got != tt.want {
			t.Errorf("resample(%d, %d, %d) = %d; want %d", tt.i, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCrtcRoundTrip(t *testing.T) {
	for _, size := range []int{256, 1024, 2048, 4096} {
		for _, level := range []int{0, 10, 130, 255} {
			want := BuildRamp(level)
			red, green, blue := spread(&want, size)
			if len(red) != size {
				t.Fatalf("size %d: spread produced %d entries", size, len(red))
			}

			var got Ramp
			if !gather(&got, red, green, blue) {
				t.Fatalf("size %d: gather rejected the table", size)
			}
			if got != want {
				t.Errorf("size %d level %d: read back a different ramp", size, level)
			}
			if l, ok := got.Level(); !ok || l != level {
				t.Errorf("size %d: Level() = %d, %v; want %d", size, l, ok, level)
			}
		}
	}
}

func TestGatherRejectsMismatchedTables(t *testing.T) {
	var r Ramp
	if gather(&r, nil, nil, nil) {
		t.Error("gather accepted empty tables")
	}
	if gather(&r, make([]uint16, 256), make([]uint16, 256), make([]uint16, 255)) {
		t.Error("gather accepted tables of different sizes")
	}
}
