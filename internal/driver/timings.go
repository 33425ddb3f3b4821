package driver

import (
	"encoding/json"
	"fmt"
	"time"

	"depyler/internal/diag"
	"depyler/internal/source"
)

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent marks one boundary of a named pipeline phase. Elapsed is
// zero on PhaseStart.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during TranspileWithOptions.
type PhaseObserver func(PhaseEvent)

// phaseReport is one row of the timing payload attached to the
// timings diagnostic as a JSON note.
type phaseReport struct {
	Name string  `json:"name"`
	MS   float64 `json:"ms"`
}

type timings struct {
	observer PhaseObserver
	began    map[string]time.Time
	phases   []phaseReport
	total    time.Duration
}

func newTimings(obs PhaseObserver) *timings {
	return &timings{observer: obs, began: make(map[string]time.Time)}
}

func (t *timings) start(name string) {
	t.began[name] = time.Now()
	if t.observer != nil {
		t.observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
}

func (t *timings) end(name string) {
	elapsed := time.Since(t.began[name])
	t.total += elapsed
	t.phases = append(t.phases, phaseReport{
		Name: name,
		MS:   float64(elapsed.Microseconds()) / 1000.0,
	})
	if t.observer != nil {
		t.observer(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: elapsed})
	}
}

// diagnostic packages the collected phase timings as an info finding.
// The human-readable message carries the total; the machine-readable
// breakdown rides in a note.
func (t *timings) diagnostic(path string) diag.Diagnostic {
	msg := fmt.Sprintf("timings: total %.2f ms — %s",
		float64(t.total.Microseconds())/1000.0, path)
	d := diag.NewInfo(diag.DrvInfo, source.Span{}, msg)
	if data, err := json.Marshal(t.phases); err == nil {
		d = d.WithNote(source.Span{}, string(data))
	}
	return d
}
