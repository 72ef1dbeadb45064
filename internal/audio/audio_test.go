package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/geom"
)

// pcmWav builds a mono 16-bit PCM file holding n samples of a constant value.
func pcmWav(rate, n int, value int16) []byte {
	var b bytes.Buffer
	dataLen := uint32(n * 2)
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, 36+dataLen)
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&b, binary.LittleEndian, uint32(rate))
	binary.Write(&b, binary.LittleEndian, uint32(rate*2))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, dataLen)
	for i := 0; i < n; i++ {
		binary.Write(&b, binary.LittleEndian, value)
	}
	return b.Bytes()
}

func TestAttenuation(t *testing.T) {
	req := Request{Position: geom.V(0, 0, 0), Gain: 1, Rolloff: 3, Radius: 2}
	tests := []struct {
		name     string
		listener geom.Vec3
		want     float64
	}{
		{"inside radius", geom.V(1, 0, 0), 1},
		{"at radius", geom.V(2, 0, 0), 1},
		{"beyond radius", geom.V(4, 0, 0), 2.0 / 8.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Attenuation(tt.listener, req); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Attenuation = %v, want %v", got, tt.want)
			}
		})
	}
	if got := Attenuation(geom.Zero, Request{Gain: -1}); got != 0 {
		t.Errorf("negative gain = %v, want 0", got)
	}
}

func TestMixerPlaysNearSkipsFar(t *testing.T) {
	assets := fstest.MapFS{
		"sounds/shot.wav": &fstest.MapFile{Data: pcmWav(DefaultSampleRate, 480, 16000)},
	}
	m := NewMixer(assets, DefaultSampleRate, zap.NewNop())

	m.PlaySound(Request{Path: "sounds/shot.wav", Gain: 1, Rolloff: 3, Radius: 2})
	if m.Active() != 1 {
		t.Fatalf("active = %d, want 1", m.Active())
	}

	samples := make([][2]float64, 64)
	if n, ok := m.Stream(samples); n != 64 || !ok {
		t.Fatalf("Stream = %d, %v", n, ok)
	}
	if samples[10][0] == 0 {
		t.Fatal("expected audible samples from the mix")
	}

	m.PlaySound(Request{Path: "sounds/shot.wav", Position: geom.V(500, 0, 0), Gain: 1, Rolloff: 3, Radius: 2})
	played, skipped := m.Stats()
	if played != 1 || skipped != 1 {
		t.Fatalf("played/skipped = %d/%d, want 1/1", played, skipped)
	}
}

func TestMixerMissingFileIsSkipped(t *testing.T) {
	m := NewMixer(fstest.MapFS{}, 0, zap.NewNop())
	m.PlaySound(Request{Path: "sounds/none.wav", Gain: 1, Radius: 1})
	m.PlaySound(Request{Path: "sounds/none.wav", Gain: 1, Radius: 1})
	if m.Active() != 0 {
		t.Fatalf("active = %d, want 0", m.Active())
	}
	if _, skipped := m.Stats(); skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
}
