// Package audio turns collision impacts into short metallic clicks.
package audio

import (
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 44100
	BufferSize = 512

	// ClickDecay is the amplitude time constant of one click in seconds.
	ClickDecay = 0.025
	// MaxVoices bounds how many clicks ring at once.
	MaxVoices = 8
)

// partials give the click its steel-ball timbre, as ratios of the base pitch.
var partials = []struct{ ratio, gain float64 }{
	{1.0, 0.6},
	{2.76, 0.25},
	{5.40, 0.15},
}

type voice struct {
	t     float64
	freq  float64
	level float64
}

// Processor mixes click voices into a stereo stream. Trigger may be called
// from the render loop while the stream callback runs on the audio thread.
type Processor struct {
	Stream *portaudio.Stream

	mu      sync.Mutex
	pending []voice
	voices  []voice

	FilterState [2]float64
	Volume      float64
	Active      bool
}

func NewProcessor(volume float64) *Processor {
	return &Processor{
		Volume:  volume,
		pending: make([]voice, 0, MaxVoices),
		voices:  make([]voice, 0, MaxVoices),
	}
}

func (a *Processor) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, a.ProcessAudio)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}

	a.Stream = stream
	a.Active = true
	return nil
}

func (a *Processor) Stop() {
	if a.Stream != nil {
		a.Stream.Stop()
		a.Stream.Close()
		a.Stream = nil
	}
	if a.Active {
		portaudio.Terminate()
	}
	a.Active = false
}

// Trigger queues a click for an impact of the given strength. Strength is the
// normal impulse reported by the resolver; ball selects the pitch so clicks on
// different contacts are distinguishable.
func (a *Processor) Trigger(strength float64, ball int) {
	level := ImpactLevel(strength)
	if level <= 0 {
		return
	}
	a.mu.Lock()
	if len(a.pending) < MaxVoices {
		a.pending = append(a.pending, voice{freq: Pitch(ball), level: level})
	}
	a.mu.Unlock()
}

// ImpactLevel maps an impulse to a loudness in [0, 1].
func ImpactLevel(strength float64) float64 {
	if !(strength > 1e-4) {
		return 0
	}
	return math.Min(1, math.Sqrt(strength/0.05))
}

// Pitch is the base frequency of the click for a contact index.
func Pitch(ball int) float64 {
	return 1760 * math.Pow(2, float64(ball%7)/12)
}

// Envelope is the click amplitude t seconds after the strike.
func Envelope(t float64) float64 {
	if t < 0 {
		return 0
	}
	const attack = 0.0005
	if t < attack {
		return t / attack
	}
	return math.Exp(-(t - attack) / ClickDecay)
}

// Click is one sample of a click with base frequency freq.
func Click(t, freq float64) float64 {
	s := 0.0
	for _, p := range partials {
		s += p.gain * math.Sin(2*math.Pi*freq*p.ratio*t)
	}
	return s * Envelope(t)
}

func lpf(sample, cutoff, dt, state float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

func (a *Processor) ProcessAudio(out [][]float32) {
	a.mu.Lock()
	for _, v := range a.pending {
		if len(a.voices) >= MaxVoices {
			a.voices = a.voices[1:]
		}
		a.voices = append(a.voices, v)
	}
	a.pending = a.pending[:0]
	a.mu.Unlock()

	dt := 1.0 / float64(SampleRate)
	for i := range out[0] {
		sample := 0.0
		for j := range a.voices {
			v := &a.voices[j]
			sample += Click(v.t, v.freq) * v.level
			v.t += dt
		}

		for c := range out {
			a.FilterState[c%2] = lpf(sample, 6000, dt, a.FilterState[c%2])
			out[c][i] = float32(math.Max(-1, math.Min(1, a.FilterState[c%2]*a.Volume)))
		}
	}

	// drop voices that have decayed below hearing
	alive := a.voices[:0]
	for _, v := range a.voices {
		if v.t < ClickDecay*10 {
			alive = append(alive, v)
		}
	}
	a.voices = alive
}
