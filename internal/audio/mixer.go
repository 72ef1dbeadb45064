package audio

import (
	"fmt"
	"io/fs"
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"
	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/geom"
)

const DefaultSampleRate = 48000

// Mixer decodes WAV sounds from an asset FS, attenuates them against the
// listener position and mixes them into one beep stream. The host owns the
// output device and pulls samples through Stream.
type Mixer struct {
	mu       sync.Mutex
	log      *zap.Logger
	assets   fs.FS
	rate     beep.SampleRate
	mixer    *beep.Mixer
	cache    map[string]*beep.Buffer
	missing  map[string]bool
	listener geom.Vec3
	played   uint64
	skipped  uint64
}

func NewMixer(assets fs.FS, sampleRate int, log *zap.Logger) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Mixer{
		log:     log,
		assets:  assets,
		rate:    beep.SampleRate(sampleRate),
		mixer:   &beep.Mixer{},
		cache:   make(map[string]*beep.Buffer),
		missing: make(map[string]bool),
	}
}

func (m *Mixer) SetListener(p geom.Vec3) {
	m.mu.Lock()
	m.listener = p
	m.mu.Unlock()
}

// PlaySound implements Sink. Missing or undecodable files are reported once
// and then skipped silently.
func (m *Mixer) PlaySound(req Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gain := Attenuation(m.listener, req)
	if gain < minAudible {
		m.skipped++
		return
	}
	buf, ok := m.load(req.Path)
	if !ok {
		m.skipped++
		return
	}
	m.mixer.Add(&effects.Volume{
		Streamer: buf.Streamer(0, buf.Len()),
		Base:     2,
		Volume:   math.Log2(gain),
	})
	m.played++
}

func (m *Mixer) load(path string) (*beep.Buffer, bool) {
	if buf, ok := m.cache[path]; ok {
		return buf, true
	}
	if m.missing[path] {
		return nil, false
	}
	buf, err := m.decode(path)
	if err != nil {
		m.missing[path] = true
		m.log.Warn("sound unavailable", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	m.cache[path] = buf
	return buf, true
}

func (m *Mixer) decode(path string) (*beep.Buffer, error) {
	if m.assets == nil {
		return nil, fmt.Errorf("no sound assets configured")
	}
	f, err := m.assets.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer s.Close()

	var src beep.Streamer = s
	if format.SampleRate != m.rate {
		src = beep.Resample(4, format.SampleRate, m.rate, s)
	}
	buf := beep.NewBuffer(beep.Format{SampleRate: m.rate, NumChannels: 2, Precision: 2})
	buf.Append(src)
	return buf, nil
}

// Stream implements beep.Streamer so the mixer can be handed to a device.
// It never ends; silence is produced when nothing is playing.
func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := m.mixer.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (m *Mixer) Err() error { return nil }

// Active returns the number of sounds still playing.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mixer.Len()
}

// Stats returns how many requests were mixed and skipped.
func (m *Mixer) Stats() (played, skipped uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.played, m.skipped
}

// Clear stops every playing sound.
func (m *Mixer) Clear() {
	m.mu.Lock()
	m.mixer.Clear()
	m.mu.Unlock()
}
