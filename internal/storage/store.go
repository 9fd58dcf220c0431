package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/linkage"
	"github.com/san-kum/linkage/internal/trace"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var header = []string{
	"time", "angle", "rpm",
	"crank_x", "crank_y", "coupler_x", "coupler_y",
	"span", "tilt", "fixed_angle", "coupler_angle", "rocker_angle",
	"branch", "feasibility",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	FPS       int                `json:"fps"`
	Duration  float64            `json:"duration"`
	Branch    string             `json:"branch"`
	Frames    int                `json:"frames"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Record is one stored frame.
type Record struct {
	Time         float64       `json:"time"`
	Angle        float64       `json:"angle"`
	RPM          float64       `json:"rpm"`
	CrankEnd     linkage.Point `json:"crank_end"`
	Coupler      linkage.Point `json:"coupler"`
	Span         float64       `json:"span"`
	Tilt         float64       `json:"tilt"`
	FixedAngle   float64       `json:"fixed_angle"`
	CouplerAngle float64       `json:"coupler_angle"`
	RockerAngle  float64       `json:"rocker_angle"`
	Branch       string        `json:"branch"`
	Feasibility  string        `json:"feasibility"`
}

// RecordOf flattens a traced frame.
func RecordOf(f trace.Frame) Record {
	p := f.Pose
	return Record{
		Time:         f.Time,
		Angle:        f.Angle,
		RPM:          f.RPM,
		CrankEnd:     p.CrankEnd,
		Coupler:      p.Coupler,
		Span:         p.Span,
		Tilt:         p.Tilt,
		FixedAngle:   p.FixedAngle,
		CouplerAngle: p.CouplerAngle,
		RockerAngle:  p.RockerAngle,
		Branch:       p.Branch.String(),
		Feasibility:  p.Feasibility.String(),
	}
}

// Save writes a run directory. Frames are written before metadata so a run
// only lists once it is complete; on any error the directory is removed.
func (s *Store) Save(name string, cfg *config.Config, tc trace.Config, result *trace.Result) (_ string, err error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: now,
		FPS:       tc.FPS,
		Duration:  tc.Duration.Seconds(),
		Branch:    tc.Branch.String(),
		Frames:    len(result.Frames),
		Config:    cfg,
		Metrics:   result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	return runID, nil
}

func writeFrames(path string, frames []trace.Frame) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, fr := range frames {
		if err := w.Write(formatRecord(RecordOf(fr))); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return []Record{}, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", framesFile, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func formatRecord(r Record) []string {
	nums := []float64{
		r.Time, r.Angle, r.RPM,
		r.CrankEnd.X, r.CrankEnd.Y, r.Coupler.X, r.Coupler.Y,
		r.Span, r.Tilt, r.FixedAngle, r.CouplerAngle, r.RockerAngle,
	}
	row := make([]string, 0, len(header))
	for _, v := range nums {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return append(row, r.Branch, r.Feasibility)
}

func parseRecord(row []string) (Record, error) {
	nums := make([]float64, len(header)-2)
	for i := range nums {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return Record{}, fmt.Errorf("column %s: %w", header[i], err)
		}
		nums[i] = v
	}
	return Record{
		Time:         nums[0],
		Angle:        nums[1],
		RPM:          nums[2],
		CrankEnd:     linkage.Point{X: nums[3], Y: nums[4]},
		Coupler:      linkage.Point{X: nums[5], Y: nums[6]},
		Span:         nums[7],
		Tilt:         nums[8],
		FixedAngle:   nums[9],
		CouplerAngle: nums[10],
		RockerAngle:  nums[11],
		Branch:       row[12],
		Feasibility:  row[13],
	}, nil
}
