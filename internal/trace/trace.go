// Package trace records cradle frames and writes them out as CSV or JSON.
package trace

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/cradle/internal/metrics"
	"github.com/san-kum/cradle/internal/sim"
)

var ErrEmpty = errors.New("trace: no frames recorded")

// BodySample is one body's state in one frame.
type BodySample struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	Swing float64 `json:"swing"`
	Rate  float64 `json:"rate"`
}

type Sample struct {
	Frame  int          `json:"frame"`
	Time   float64      `json:"time"`
	Energy float64      `json:"energy"`
	Impact float64      `json:"impact"`
	Bodies []BodySample `json:"bodies"`
}

// Recorder is a sim.Observer that keeps one sample per frame.
type Recorder struct {
	samples []Sample
}

func NewRecorder() *Recorder {
	return &Recorder{samples: make([]Sample, 0)}
}

func (r *Recorder) OnFrame(f sim.Frame) {
	s := Sample{
		Frame:  f.Index,
		Time:   f.Time,
		Energy: metrics.TotalEnergy(f),
		Impact: f.Impact,
		Bodies: make([]BodySample, len(f.Bodies)),
	}
	for i := range f.Bodies {
		b := &f.Bodies[i]
		s.Bodies[i] = BodySample{
			X:     b.Position.X(),
			Y:     b.Position.Y(),
			Angle: b.Angle,
			Swing: b.SwingAngle(),
			Rate:  metrics.SwingRate(b, f.Dt),
		}
	}
	r.samples = append(r.samples, s)
}

func (r *Recorder) Samples() []Sample { return r.samples }
func (r *Recorder) Len() int          { return len(r.samples) }

func (r *Recorder) Reset() {
	r.samples = r.samples[:0]
}

// Series returns the swing angle of one body across every recorded frame.
func (r *Recorder) Series(body int) []float64 {
	return Series(r.samples, body)
}

func Series(samples []Sample, body int) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if body >= 0 && body < len(s.Bodies) {
			out = append(out, s.Bodies[body].Swing)
		}
	}
	return out
}

// Energies returns the total energy of every recorded frame.
func (r *Recorder) Energies() []float64 {
	out := make([]float64, len(r.samples))
	for i, s := range r.samples {
		out[i] = s.Energy
	}
	return out
}

type Export struct {
	Balls   int                `json:"balls"`
	Dt      float64            `json:"dt"`
	Frames  int                `json:"frames"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Samples []Sample           `json:"samples"`
}

// WriteJSON writes the recorded frames with the run's metrics.
func (r *Recorder) WriteJSON(w io.Writer, dt float64, result *sim.Result) error {
	if len(r.samples) == 0 {
		return ErrEmpty
	}
	data := Export{
		Balls:   len(r.samples[0].Bodies),
		Dt:      dt,
		Frames:  len(r.samples),
		Samples: r.samples,
	}
	if result != nil {
		data.Metrics = result.Metrics
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes one row per frame: frame, time, energy, impact, then
// x, y, angle and swing for each body.
func (r *Recorder) WriteCSV(w io.Writer) error {
	if len(r.samples) == 0 {
		return ErrEmpty
	}
	cw := csv.NewWriter(w)

	header := []string{"frame", "time", "energy", "impact"}
	for i := range r.samples[0].Bodies {
		header = append(header,
			fmt.Sprintf("x%d", i),
			fmt.Sprintf("y%d", i),
			fmt.Sprintf("angle%d", i),
			fmt.Sprintf("swing%d", i),
		)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range r.samples {
		row := []string{
			strconv.Itoa(s.Frame),
			formatFloat(s.Time),
			formatFloat(s.Energy),
			formatFloat(s.Impact),
		}
		for _, b := range s.Bodies {
			row = append(row, formatFloat(b.X), formatFloat(b.Y), formatFloat(b.Angle), formatFloat(b.Swing))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a trace written by WriteCSV. Rates are not part of the CSV
// layout and come back as zero.
func ReadCSV(rd io.Reader) ([]Sample, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, ErrEmpty
	}

	header := records[0]
	if len(header) < 4 || (len(header)-4)%4 != 0 {
		return nil, fmt.Errorf("trace: unexpected header with %d columns", len(header))
	}
	balls := (len(header) - 4) / 4

	samples := make([]Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("trace: row %d has %d columns, want %d", line+1, len(record), len(header))
		}
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("trace: row %d column %s: %w", line+1, header[j], err)
			}
			values[j] = v
		}

		s := Sample{
			Frame:  int(values[0]),
			Time:   values[1],
			Energy: values[2],
			Impact: values[3],
			Bodies: make([]BodySample, balls),
		}
		for i := 0; i < balls; i++ {
			o := 4 + i*4
			s.Bodies[i] = BodySample{X: values[o], Y: values[o+1], Angle: values[o+2], Swing: values[o+3]}
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
