package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	buildDurations int
	buildOutcomes  map[string]int
	pages          []int
	brokenLinks    int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stageDurations: map[string]int{}, stageResults: map[string]map[ResultLabel]int{}, buildOutcomes: map[string]int{}}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.stageDurations[stage]++
}
func (t *testRecorder) ObserveBuildDuration(_ time.Duration) { t.buildDurations++ }
func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) IncBuildOutcome(outcome string) { t.buildOutcomes[outcome]++ }
func (t *testRecorder) ObservePagesRendered(n int)     { t.pages = append(t.pages, n) }
func (t *testRecorder) IncBrokenLinks(n int)           { t.brokenLinks += n }

// Compile-time interface checks.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = (*testRecorder)(nil)
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("render_pages", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render_pages", ResultSuccess)
	r.IncBuildOutcome("success")
	r.ObservePagesRendered(3)
	r.IncBrokenLinks(1)
}

func TestTestRecorderCounts(t *testing.T) {
	r := newTestRecorder()
	r.ObserveStageDuration("scan_modules", time.Millisecond)
	r.ObserveStageDuration("scan_modules", time.Millisecond)
	r.IncStageResult("scan_modules", ResultWarning)
	r.IncBuildOutcome("warning")
	r.ObservePagesRendered(7)
	r.IncBrokenLinks(2)

	if r.stageDurations["scan_modules"] != 2 {
		t.Errorf("stage durations = %d, want 2", r.stageDurations["scan_modules"])
	}
	if r.stageResults["scan_modules"][ResultWarning] != 1 {
		t.Errorf("stage results = %+v", r.stageResults)
	}
	if r.buildOutcomes["warning"] != 1 {
		t.Errorf("build outcomes = %+v", r.buildOutcomes)
	}
	if len(r.pages) != 1 || r.pages[0] != 7 {
		t.Errorf("pages = %v", r.pages)
	}
	if r.brokenLinks != 2 {
		t.Errorf("broken links = %d", r.brokenLinks)
	}
}

func TestPrometheusRecorderNilSafety(t *testing.T) {
	var p *PrometheusRecorder
	p.ObserveStageDuration("render_pages", time.Second)
	p.ObserveBuildDuration(time.Second)
	p.IncStageResult("render_pages", ResultSuccess)
	p.IncBuildOutcome("success")
	p.ObservePagesRendered(3)
	p.IncBrokenLinks(1)
}
