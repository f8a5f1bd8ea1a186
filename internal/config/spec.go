package config

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

const pipelineSpecEnv = "PIPELINE_SPEC_YAML"

//go:embed pipeline.yaml
var pipelineSpecFS embed.FS

// fallback stage graph used when YAML is missing or invalid
var fallbackStageOrder = []string{
	"upload",
	"parse",
	"analyze",
	"segment",
	"visual_generate",
	"render",
}

type RetryPolicy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	JitterFrac  float64
}

type StageSpec struct {
	Name     string
	Scope    string // "document" or "project"
	Requires []string
	Retry    RetryPolicy
}

type Limits struct {
	SegmentMinSeconds       float64
	SegmentMaxSeconds       float64
	AggregateTargetSeconds  float64
	ScriptSegmentMaxSeconds float64
	WordsPerSecond          float64
}

type Spec struct {
	Pipeline string
	Version  int
	Stages   []StageSpec
	Limits   Limits

	byName map[string]*StageSpec
}

type yamlSpec struct {
	Pipeline string          `yaml:"pipeline"`
	Version  int             `yaml:"version"`
	Stages   []yamlStageSpec `yaml:"stages"`
	Limits   yamlLimits      `yaml:"limits"`
}

type yamlStageSpec struct {
	Name     string    `yaml:"name"`
	Scope    string    `yaml:"scope"`
	Requires []string  `yaml:"requires"`
	Retry    yamlRetry `yaml:"retry"`
}

type yamlRetry struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	MinBackoffSeconds float64 `yaml:"min_backoff_seconds"`
	MaxBackoffSeconds float64 `yaml:"max_backoff_seconds"`
	JitterFrac        float64 `yaml:"jitter_frac"`
}

type yamlLimits struct {
	SegmentMinSeconds       float64 `yaml:"segment_min_seconds"`
	SegmentMaxSeconds       float64 `yaml:"segment_max_seconds"`
	AggregateTargetSeconds  float64 `yaml:"aggregate_target_seconds"`
	ScriptSegmentMaxSeconds float64 `yaml:"script_segment_max_seconds"`
	WordsPerSecond          float64 `yaml:"words_per_second"`
}

var (
	loadOnce   sync.Once
	loadedSpec *Spec
)

// LoadPipelineSpec parses the pipeline stage graph. Order of
// precedence: PIPELINE_SPEC_YAML file, embedded pipeline.yaml,
// hardcoded fallback chain.
func LoadPipelineSpec(log *logger.Logger) *Spec {
	loadOnce.Do(func() {
		loadedSpec = loadSpec(log)
	})
	return loadedSpec
}

func loadSpec(log *logger.Logger) *Spec {
	if path := strings.TrimSpace(os.Getenv(pipelineSpecEnv)); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if sp, perr := parseSpec(b); perr == nil {
				return sp
			} else if log != nil {
				log.Warn("pipeline spec override invalid, falling back", "path", path, "error", perr)
			}
		} else if log != nil {
			log.Warn("pipeline spec override unreadable, falling back", "path", path, "error", err)
		}
	}
	if b, err := pipelineSpecFS.ReadFile("pipeline.yaml"); err == nil {
		if sp, perr := parseSpec(b); perr == nil {
			return sp
		} else if log != nil {
			log.Warn("embedded pipeline spec invalid, using fallback graph", "error", perr)
		}
	}
	return fallbackSpec()
}

func parseSpec(b []byte) (*Spec, error) {
	var ys yamlSpec
	if err := yaml.Unmarshal(b, &ys); err != nil {
		return nil, err
	}
	if len(ys.Stages) == 0 {
		return nil, fmt.Errorf("pipeline spec has no stages")
	}
	sp := &Spec{
		Pipeline: ys.Pipeline,
		Version:  ys.Version,
		Limits: Limits{
			SegmentMinSeconds:       defaultFloat(ys.Limits.SegmentMinSeconds, 5),
			SegmentMaxSeconds:       defaultFloat(ys.Limits.SegmentMaxSeconds, 120),
			AggregateTargetSeconds:  defaultFloat(ys.Limits.AggregateTargetSeconds, 420),
			ScriptSegmentMaxSeconds: defaultFloat(ys.Limits.ScriptSegmentMaxSeconds, 600),
			WordsPerSecond:          defaultFloat(ys.Limits.WordsPerSecond, 2.5),
		},
		byName: map[string]*StageSpec{},
	}
	for _, st := range ys.Stages {
		name := strings.TrimSpace(st.Name)
		if name == "" {
			return nil, fmt.Errorf("pipeline spec stage missing name")
		}
		if _, dup := sp.byName[name]; dup {
			return nil, fmt.Errorf("duplicate stage %q", name)
		}
		scope := st.Scope
		if scope == "" {
			scope = "document"
		}
		ss := StageSpec{
			Name:     name,
			Scope:    scope,
			Requires: st.Requires,
			Retry: RetryPolicy{
				MaxAttempts: defaultInt(st.Retry.MaxAttempts, 3),
				MinBackoff:  secondsOr(st.Retry.MinBackoffSeconds, time.Second),
				MaxBackoff:  secondsOr(st.Retry.MaxBackoffSeconds, 30*time.Second),
				JitterFrac:  defaultFloat(st.Retry.JitterFrac, 0.20),
			},
		}
		sp.Stages = append(sp.Stages, ss)
		sp.byName[name] = &sp.Stages[len(sp.Stages)-1]
	}
	for _, st := range sp.Stages {
		for _, req := range st.Requires {
			if _, ok := sp.byName[req]; !ok {
				return nil, fmt.Errorf("stage %q requires unknown stage %q", st.Name, req)
			}
		}
	}
	return sp, nil
}

func fallbackSpec() *Spec {
	sp := &Spec{
		Pipeline: "paperclip",
		Version:  1,
		Limits: Limits{
			SegmentMinSeconds:       5,
			SegmentMaxSeconds:       120,
			AggregateTargetSeconds:  420,
			ScriptSegmentMaxSeconds: 600,
			WordsPerSecond:          2.5,
		},
		byName: map[string]*StageSpec{},
	}
	for i, name := range fallbackStageOrder {
		ss := StageSpec{
			Name:  name,
			Scope: "document",
			Retry: RetryPolicy{MaxAttempts: 3, MinBackoff: time.Second, MaxBackoff: 30 * time.Second, JitterFrac: 0.20},
		}
		if name == "visual_generate" || name == "render" {
			ss.Scope = "project"
		}
		if i > 0 {
			ss.Requires = []string{fallbackStageOrder[i-1]}
		}
		sp.Stages = append(sp.Stages, ss)
		sp.byName[name] = &sp.Stages[len(sp.Stages)-1]
	}
	return sp
}

// Stage looks up a stage spec by name.
func (s *Spec) Stage(name string) (*StageSpec, bool) {
	st, ok := s.byName[name]
	return st, ok
}

// Successors returns the stages that list name as a requirement, in
// spec order.
func (s *Spec) Successors(name string) []StageSpec {
	var out []StageSpec
	for _, st := range s.Stages {
		for _, req := range st.Requires {
			if req == name {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func defaultFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func secondsOr(v float64, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v * float64(time.Second))
}
