package impactor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// MaxTrackPoints bounds the number of samples of a single track.
const MaxTrackPoints = 1000000

// TrackPoint is one sample of the heliocentric track of a body.
type TrackPoint struct {
	At       time.Time    `json:"at"`
	Position Vector3      `json:"position_au"`
	Velocity Vector3      `json:"velocity_km_s"`
	State    OrbitalState `json:"state"`
}

// Track samples the heliocentric track of b every step from start to end, both included.
// The elements must carry an Orientation.
func Track(b Body, start, end time.Time, step time.Duration) ([]TrackPoint, error) {
	if step <= 0 {
		return nil, invalid("step", step.Seconds(), "must be a positive duration")
	}
	if end.Before(start) {
		return nil, invalid("end", end.Sub(start).Hours()/24, "days after the start must not be negative")
	}
	n := int(end.Sub(start)/step) + 1
	if n > MaxTrackPoints {
		return nil, invalid("step", step.Seconds(), fmt.Sprintf("yields %d points, more than %d", n, MaxTrackPoints))
	}
	points := make([]TrackPoint, 0, n)
	for dt := start; !dt.After(end); dt = dt.Add(step) {
		o, err := b.Elements.At(dt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name, err)
		}
		s, err := ComputeState(o, dt)
		if err != nil {
			return nil, fmt.Errorf("%s at %s: %w", b.Name, dt.Format(time.RFC3339), err)
		}
		R, err := HeliocentricPosition(o, s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name, err)
		}
		V, err := HeliocentricVelocity(o, s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name, err)
		}
		points = append(points, TrackPoint{At: dt, Position: R, Velocity: V, State: s})
	}
	return points, nil
}

// CgCatalog definition.
type CgCatalog struct {
	Version string     `json:"version"`
	Name    string     `json:"name"`
	Items   []*CgItems `json:"items"`
	Require []string   `json:"require,omitempty"`
}

func (c *CgCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// CgItems definition.
type CgItems struct {
	Class           string            `json:"class"`
	Name            string            `json:"name"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	Center          string            `json:"center"`
	TrajectoryFrame string            `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory     `json:"trajectory,omitempty"`
	Label           *CgLabel          `json:"label,omitempty"`
	TrajectoryPlot  *CgTrajectoryPlot `json:"trajectoryPlot,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// Validate validates a CgTrajectory.
func (t *CgTrajectory) Validate() error {
	if t.Type != "InterpolatedStates" || !strings.HasSuffix(t.Source, "xyzv") {
		return errors.New("only InterpolatedStates are currently supported in Cosmographia trajectory types")
	}
	return nil
}

func (t *CgTrajectory) String() string {
	return t.Source + " as " + t.Type
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

func (l *CgLabel) String() string {
	return fmt.Sprintf("color %v, fade %d, show %v", l.Color, l.FadeSize, l.ShowText)
}

// CgTrajectoryPlot definition.
type CgTrajectoryPlot struct {
	Color       []float64 `json:"color,omitempty"`
	LineWidth   int       `json:"lineWidth,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Lead        string    `json:"lead,omitempty"`
	Fade        int       `json:"fade,omitempty"`
	SampleCount int       `json:"sampleCount,omitempty"`
}

// NewCgCatalog returns a catalog with one item pointing at the interpolated state file source.
func NewCgCatalog(name, source string, points []TrackPoint) (*CgCatalog, error) {
	if len(points) == 0 {
		return nil, errors.New("cannot catalog an empty track")
	}
	traj := &CgTrajectory{Type: "InterpolatedStates", Source: source}
	if err := traj.Validate(); err != nil {
		return nil, err
	}
	first, last := points[0].At, points[len(points)-1].At
	color := []float64{0.6, 1, 1}
	plot := &CgTrajectoryPlot{Color: color, LineWidth: 1, Lead: "0 d", SampleCount: 10}
	plot.Duration = fmt.Sprintf("%d d", int(last.Sub(first).Hours()/24+1))
	item := &CgItems{
		Class:           "asteroid",
		Name:            name,
		StartTime:       first.UTC().Format(time.RFC3339),
		EndTime:         last.UTC().Format(time.RFC3339),
		Center:          "Sun",
		TrajectoryFrame: "EclipticJ2000",
		Trajectory:      traj,
		Label:           &CgLabel{Color: color, FadeSize: 1000000, ShowText: true},
		TrajectoryPlot:  plot,
	}
	return &CgCatalog{Version: "1.0", Name: name, Items: []*CgItems{item}}, nil
}

// CgInterpolatedState definition.
type CgInterpolatedState struct {
	JD       float64
	Position []float64 // km
	Velocity []float64 // km/s
}

// FromText initializes from text.
// The `record` parameter must be an array of seven items.
func (i *CgInterpolatedState) FromText(record []string) error {
	if len(record) != 7 {
		return fmt.Errorf("expected 7 fields, got %d", len(record))
	}
	vals := make([]float64, 7)
	for k, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("field %d: %w", k, err)
		}
		vals[k] = v
	}
	i.JD = vals[0]
	i.Position = vals[1:4]
	i.Velocity = vals[4:7]
	return nil
}

// ToText converts to text for written output.
func (i *CgInterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads interpolated states written by WriteInterpolatedStates.
func ParseInterpolatedStates(r io.Reader) ([]*CgInterpolatedState, error) {
	var states = []*CgInterpolatedState{}
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.Comment = '#'
	for {
		record, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		state := CgInterpolatedState{}
		if err := state.FromText(record); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(states)+1, err)
		}
		states = append(states, &state)
	}
	return states, nil
}

// WriteInterpolatedStates writes the track in the Cosmographia xyzv format.
func WriteInterpolatedStates(w io.Writer, points []TrackPoint) error {
	if len(points) == 0 {
		return errors.New("cannot write an empty track")
	}
	// Header
	if _, err := fmt.Fprintf(w, `# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a UTC Julian date
#   Position in km
#   Velocity in km/sec
#   Track start (UTC): %s
`, points[0].At.UTC()); err != nil {
		return err
	}
	for _, p := range points {
		R := p.Position.Scale(AU)
		st := CgInterpolatedState{JD: julian.TimeToJD(p.At), Position: []float64{R.X, R.Y, R.Z}, Velocity: []float64{p.Velocity.X, p.Velocity.Y, p.Velocity.Z}}
		if _, err := fmt.Fprintln(w, st.ToText()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "# Track end (UTC): %s\n", points[len(points)-1].At.UTC())
	return err
}

// WriteTrackCSV writes one row per point: the instant, the anomalies and the position. All angles are in degrees.
func WriteTrackCSV(w io.Writer, points []TrackPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "jd", "M", "E", "nu", "r", "v", "x", "y", "z"}); err != nil {
		return err
	}
	f := func(v float64, prec int) string {
		return strconv.FormatFloat(v, 'f', prec, 64)
	}
	for _, p := range points {
		s := p.State
		if err := cw.Write([]string{
			p.At.UTC().Format("2006-01-02 15:04:05"),
			f(julian.TimeToJD(p.At), 6),
			f(s.MeanAnomaly, 6), f(Rad2deg(s.EccentricAnomaly), 6), f(s.TrueAnomaly, 6),
			f(s.Distance, 9), f(s.Speed, 6),
			f(p.Position.X, 9), f(p.Position.Y, 9), f(p.Position.Z, 9),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
