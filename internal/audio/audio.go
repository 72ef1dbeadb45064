// Package audio receives fire-and-forget play requests from the simulation.
package audio

import "github.com/fragcore/arena/internal/geom"

// Request asks for a positional one-shot sound.
type Request struct {
	Path     string
	Position geom.Vec3
	Gain     float64
	Rolloff  float64
	Radius   float64
}

// Sink accepts play requests. Implementations must not block the caller.
type Sink interface {
	PlaySound(req Request)
}

// Nop discards every request.
type Nop struct{}

func (Nop) PlaySound(Request) {}

// Recorder keeps every request; hosts without audio use it to count sounds.
type Recorder struct {
	Requests []Request
}

func (r *Recorder) PlaySound(req Request) { r.Requests = append(r.Requests, req) }

// minAudible is the gain below which a sound is not mixed at all.
const minAudible = 0.01

// Attenuation returns the effective gain of req heard at listener using the
// clamped inverse distance model: full gain inside Radius, then
// radius / (radius + rolloff * (d - radius)).
func Attenuation(listener geom.Vec3, req Request) float64 {
	gain := req.Gain
	if gain <= 0 {
		return 0
	}
	radius := req.Radius
	if radius <= 0 {
		radius = 1
	}
	d := listener.Dist(req.Position)
	if d <= radius {
		return gain
	}
	rolloff := req.Rolloff
	if rolloff < 0 {
		rolloff = 0
	}
	return gain * radius / (radius + rolloff*(d-radius))
}
