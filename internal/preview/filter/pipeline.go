package filter

import (
	"sync"

	"github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/logger"
	"github.com/zsiec/glimpse/internal/metrics"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// Stage is one configured pipeline entry.
type Stage struct {
	Kind    StageKind
	Enabled bool
	Params  Params
}

// Pipeline runs enabled stages in order, each consuming the previous output
// and producing a new buffer, then applies the quality-level resize step.
// Configuration calls and Apply may race: Apply works on an immutable
// snapshot of the stage list taken at entry, so stage edits never tear an
// in-flight frame.
type Pipeline struct {
	mu     sync.RWMutex
	stages []Stage

	sessionID string
	logger    logger.Logger
}

// DefaultOrder is the initial stage ordering, matching the editor's filter
// panel layout.
var DefaultOrder = []StageKind{
	StageBrightness,
	StageContrast,
	StageSaturation,
	StageBlur,
	StageSharpen,
	StageScale,
}

// NewPipeline creates a pipeline with all stages present but disabled.
func NewPipeline(sessionID string, log logger.Logger) *Pipeline {
	stages := make([]Stage, 0, len(DefaultOrder))
	for _, kind := range DefaultOrder {
		stages = append(stages, Stage{
			Kind:    kind,
			Enabled: false,
			Params:  DefaultParams(kind),
		})
	}

	return &Pipeline{
		stages:    stages,
		sessionID: sessionID,
		logger:    log.WithField("component", "filter_pipeline"),
	}
}

// SetStage configures one stage. Parameters are validated here, before they
// can reach the playback loop; on error the previous configuration stays.
func (p *Pipeline) SetStage(kind StageKind, enabled bool, params Params) error {
	if params == nil {
		params = DefaultParams(kind)
	}
	if params.Kind() != kind {
		return errors.NewFilterError(kind.String(), "parameter variant does not match stage kind")
	}
	if err := params.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.stages {
		if p.stages[i].Kind == kind {
			p.stages[i].Enabled = enabled
			p.stages[i].Params = params
			return nil
		}
	}
	return errors.NewFilterError(kind.String(), "unknown stage")
}

// SetOrder rearranges the pipeline. Every configured stage must appear
// exactly once.
func (p *Pipeline) SetOrder(order []StageKind) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(order) != len(p.stages) {
		return errors.NewFilterError("pipeline", "order must list every stage exactly once")
	}

	reordered := make([]Stage, 0, len(p.stages))
	seen := make(map[StageKind]bool, len(order))
	for _, kind := range order {
		if seen[kind] {
			return errors.NewFilterError("pipeline", "duplicate stage in order")
		}
		seen[kind] = true

		found := false
		for _, s := range p.stages {
			if s.Kind == kind {
				reordered = append(reordered, s)
				found = true
				break
			}
		}
		if !found {
			return errors.NewFilterError(kind.String(), "unknown stage")
		}
	}

	p.stages = reordered
	return nil
}

// DisableAll turns every stage off, leaving parameters in place.
func (p *Pipeline) DisableAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.stages {
		p.stages[i].Enabled = false
	}
}

// Stages returns a copy of the current configuration.
func (p *Pipeline) Stages() []Stage {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// AnyEnabled reports whether at least one stage is enabled.
func (p *Pipeline) AnyEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, s := range p.stages {
		if s.Enabled {
			return true
		}
	}
	return false
}

// Apply runs the enabled stages in order and the quality resize post-step.
// A failing stage is bypassed for this frame: the pipeline logs it and
// continues with the prior buffer, because a filter failure must never stop
// playback. If the quality resize itself fails the pre-pipeline input is
// returned unmodified.
func (p *Pipeline) Apply(frame *types.Frame, quality types.QualityLevel) *types.Frame {
	// Snapshot under the read lock; the stage walk below runs lock-free.
	stages := p.Stages()

	current := frame
	for _, stage := range stages {
		if !stage.Enabled {
			continue
		}

		next, err := applyStage(current, stage.Params)
		if err != nil {
			metrics.RecordFilterFailure(p.sessionID, stage.Kind.String())
			p.logger.WithError(err).WithFields(map[string]interface{}{
				"stage":        stage.Kind.String(),
				"frame_number": frame.Number,
			}).Warn("Filter stage bypassed")
			continue
		}
		current = next
	}

	resized, err := applyQualityResize(current, quality)
	if err != nil {
		metrics.RecordFilterFailure(p.sessionID, "quality_resize")
		p.logger.WithError(err).WithField("frame_number", frame.Number).
			Warn("Quality resize bypassed")
		return frame
	}
	return resized
}
