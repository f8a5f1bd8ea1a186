package config

import (
	"testing"
	"time"
)

func TestEmbeddedSpecParses(t *testing.T) {
	b, err := pipelineSpecFS.ReadFile("pipeline.yaml")
	if err != nil {
		t.Fatalf("read embedded spec: %v", err)
	}
	sp, err := parseSpec(b)
	if err != nil {
		t.Fatalf("parse embedded spec: %v", err)
	}

	wantOrder := []string{"upload", "parse", "analyze", "segment", "visual_generate", "render"}
	if len(sp.Stages) != len(wantOrder) {
		t.Fatalf("stages: expected %d, got %d", len(wantOrder), len(sp.Stages))
	}
	for i, name := range wantOrder {
		if sp.Stages[i].Name != name {
			t.Fatalf("stage %d: expected %q got %q", i, name, sp.Stages[i].Name)
		}
	}

	parse, ok := sp.Stage("parse")
	if !ok {
		t.Fatal("parse stage missing")
	}
	if len(parse.Requires) != 1 || parse.Requires[0] != "upload" {
		t.Fatalf("parse requires: %v", parse.Requires)
	}
	if parse.Retry.MaxAttempts != 3 {
		t.Fatalf("parse retry ceiling: %d", parse.Retry.MaxAttempts)
	}
	if parse.Retry.MinBackoff != 2*time.Second {
		t.Fatalf("parse min backoff: %v", parse.Retry.MinBackoff)
	}

	vg, _ := sp.Stage("visual_generate")
	if vg.Scope != "project" {
		t.Fatalf("visual_generate scope: %q", vg.Scope)
	}
}

func TestSuccessors(t *testing.T) {
	b, _ := pipelineSpecFS.ReadFile("pipeline.yaml")
	sp, err := parseSpec(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	succ := sp.Successors("analyze")
	if len(succ) != 1 || succ[0].Name != "segment" {
		t.Fatalf("successors(analyze): %v", succ)
	}
	if got := sp.Successors("render"); len(got) != 0 {
		t.Fatalf("successors(render): %v", got)
	}
}

func TestFallbackSpecCoversAllStages(t *testing.T) {
	sp := fallbackSpec()
	for _, name := range fallbackStageOrder {
		if _, ok := sp.Stage(name); !ok {
			t.Fatalf("fallback missing stage %q", name)
		}
	}
	if sp.Limits.SegmentMaxSeconds != 120 {
		t.Fatalf("fallback segment max: %v", sp.Limits.SegmentMaxSeconds)
	}
}

func TestParseSpecRejectsUnknownRequirement(t *testing.T) {
	bad := []byte("pipeline: p\nversion: 1\nstages:\n  - name: a\n    requires: [missing]\n")
	if _, err := parseSpec(bad); err == nil {
		t.Fatal("expected error for unknown requirement")
	}
}
