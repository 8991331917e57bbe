package audio

import (
	"io"
	"sort"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/san-kum/cradle/internal/sim"
)

// Format is the stream format of rendered tracks.
var Format = beep.Format{SampleRate: beep.SampleRate(SampleRate), NumChannels: 2, Precision: 2}

// Event is one impact at a point in a recorded run.
type Event struct {
	At       time.Duration
	Strength float64
	Ball     int
}

// Recorder collects impact events from a running cradle. It implements
// sim.Observer.
type Recorder struct {
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) OnFrame(f sim.Frame) {
	if ImpactLevel(f.Impact) <= 0 {
		return
	}
	// the struck ball leaves the contact fastest
	ball, fastest := 0, -1.0
	for i := range f.Bodies {
		if f.Bodies[i].Speed > fastest {
			ball, fastest = i, f.Bodies[i].Speed
		}
	}
	r.events = append(r.events, Event{
		At:       time.Duration(f.Time * float64(time.Second)),
		Strength: f.Impact,
		Ball:     ball,
	})
}

func (r *Recorder) Events() []Event { return r.events }

// Track renders a list of impacts offline through a Processor. It implements
// beep.Streamer.
type Track struct {
	proc   *Processor
	events []Event
	next   int
	pos    int
	total  int
	buf    [][]float32
}

// NewTrack returns a track of the given length. A tail is added so the last
// click can ring out.
func NewTrack(volume float64, events []Event, length time.Duration) *Track {
	sorted := append([]Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })

	tail := time.Duration(10 * ClickDecay * float64(time.Second))
	return &Track{
		proc:   NewProcessor(volume),
		events: sorted,
		total:  Format.SampleRate.N(length + tail),
		buf:    [][]float32{make([]float32, BufferSize), make([]float32, BufferSize)},
	}
}

// Len is the track length in samples.
func (t *Track) Len() int { return t.total }

func (t *Track) Stream(samples [][2]float64) (n int, ok bool) {
	if t.pos >= t.total {
		return 0, false
	}
	n = min(len(samples), t.total-t.pos)

	for i := 0; i < n; {
		for t.next < len(t.events) && Format.SampleRate.N(t.events[t.next].At) <= t.pos {
			e := t.events[t.next]
			t.proc.Trigger(e.Strength, e.Ball)
			t.next++
		}

		chunk := min(n-i, BufferSize)
		if t.next < len(t.events) {
			chunk = min(chunk, Format.SampleRate.N(t.events[t.next].At)-t.pos)
		}
		out := [][]float32{t.buf[0][:chunk], t.buf[1][:chunk]}
		t.proc.ProcessAudio(out)
		for j := 0; j < chunk; j++ {
			samples[i+j][0] = float64(out[0][j])
			samples[i+j][1] = float64(out[1][j])
		}
		i += chunk
		t.pos += chunk
	}
	return n, true
}

func (t *Track) Err() error { return nil }

// WriteWAV encodes the whole track as 16-bit stereo WAV.
func WriteWAV(w io.WriteSeeker, t *Track) error {
	return wav.Encode(w, t, Format)
}
