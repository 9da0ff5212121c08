package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larschri/horisont/observation"
	"github.com/larschri/horisont/plan"
)

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) Publish(ctx context.Context, res plan.Result) error {
	f.published = append(f.published, res.Point.Name)
	return nil
}

func outcomesFor(t *testing.T, names ...string) (*observation.Set, []plan.Outcome) {
	t.Helper()
	set := &observation.Set{}
	var outcomes []plan.Outcome
	for _, name := range names {
		p := observation.Point{Name: name, AntennaHeight: 2}
		if err := set.Add(p); err != nil {
			t.Fatal(err)
		}
		if strings.HasPrefix(name, "fail") {
			outcomes = append(outcomes, plan.Outcome{Err: &plan.PointError{Point: name, Azimuth: -1, Err: plan.ErrMethodNotImplemented}})
			continue
		}
		outcomes = append(outcomes, plan.Outcome{Result: plan.Result{
			Point:    p,
			Azimuths: []float64{0, 200},
			Angles:   []float64{12, -1},
		}})
	}
	return set, outcomes
}

func TestDiagramName(t *testing.T) {
	for _, name := range []string{"P1", "a/b", "../../x", `c:\d`, "..", "tab\tname"} {
		got := diagramName(name, "polar")
		if filepath.Base(got) != got || strings.ContainsAny(got, `/\`) {
			t.Errorf("diagramName(%q) = %q leaves the output directory", name, got)
		}
		if !strings.HasSuffix(got, "-polar.png") {
			t.Errorf("diagramName(%q) = %q", name, got)
		}
	}
	if got := diagramName("P1", "panorama"); got != "P1-panorama.png" {
		t.Errorf("got %q", got)
	}
}

func TestReportWritesDiagramsInsideOut(t *testing.T) {
	out := filepath.Join(t.TempDir(), "diagrams")
	set, outcomes := outcomesFor(t, "../../escape", "roof/north")

	var stdout bytes.Buffer
	if err := (reporter{cutoff: 10, minOpenFraction: 0.75, out: out}).report(context.Background(), &stdout, set, outcomes); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("got %d files in %s, want 4", len(entries), out)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(out), "..", "escape-panorama.png")); err == nil {
		t.Error("diagram written outside the output directory")
	}
}

func TestReportContinuesAfterFailures(t *testing.T) {
	// a regular file where the output directory should be
	out := filepath.Join(t.TempDir(), "taken")
	if err := os.WriteFile(out, nil, 0644); err != nil {
		t.Fatal(err)
	}
	set, outcomes := outcomesFor(t, "A", "failing", "C")
	pub := &fakePublisher{}

	var stdout bytes.Buffer
	err := (reporter{cutoff: 10, minOpenFraction: 0.75, out: out, pub: pub}).report(context.Background(), &stdout, set, outcomes)

	if !errors.Is(err, errPointsFailed) {
		t.Errorf("got %v, want failed points reported", err)
	}
	if err == nil || !strings.Contains(err.Error(), `"A"`) || !strings.Contains(err.Error(), `"C"`) {
		t.Errorf("diagram failures missing from %v", err)
	}
	for _, row := range []string{"A", "failing", "C"} {
		if !strings.Contains(stdout.String(), row+" ") {
			t.Errorf("no row for %s in\n%s", row, stdout.String())
		}
	}
	if len(pub.published) != 2 || pub.published[0] != "A" || pub.published[1] != "C" {
		t.Errorf("published %v, want [A C]", pub.published)
	}
}

func TestReportAllPointsOK(t *testing.T) {
	set, outcomes := outcomesFor(t, "A", "B")
	var stdout bytes.Buffer
	if err := (reporter{cutoff: 10, minOpenFraction: 0.75}).report(context.Background(), &stdout, set, outcomes); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "1/2") {
		t.Errorf("obstruction count missing from\n%s", stdout.String())
	}
}
