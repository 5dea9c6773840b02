package domain

// Stage names one pipeline step.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageSegment    Stage = "segment"
	StageNormalize  Stage = "normalize"
	StageRewrite    Stage = "rewrite"
	StageSynthesize Stage = "synthesize"
	StageRemux      Stage = "remux"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageTranscribe,
	StageSegment,
	StageNormalize,
	StageRewrite,
	StageSynthesize,
	StageRemux,
}

func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownStage
}

// JobState is the position of a job in the pipeline state machine.
type JobState string

const (
	StateCreated            JobState = "created"
	StateTranscribed        JobState = "transcribed"
	StateSegmented          JobState = "segmented"
	StateAudienceNormalized JobState = "audience-normalized"
	StateRewritten          JobState = "rewritten"
	StateSynthesized        JobState = "synthesized"
	StateRemuxed            JobState = "remuxed"
	StateFailed             JobState = "failed"
)

// Completes returns the state a job enters once the stage finishes.
func (s Stage) Completes() JobState {
	switch s {
	case StageTranscribe:
		return StateTranscribed
	case StageSegment:
		return StateSegmented
	case StageNormalize:
		return StateAudienceNormalized
	case StageRewrite:
		return StateRewritten
	case StageSynthesize:
		return StateSynthesized
	case StageRemux:
		return StateRemuxed
	}
	return ""
}

func (s JobState) Terminal() bool {
	return s == StateRemuxed || s == StateFailed
}

// ValidTransition enforces the pipeline edges. Segmentation is an optional
// branch between transcription and normalization. Any state may restart at
// created, which is how a whole job is re-run.
func ValidTransition(from, to JobState) bool {
	if to == StateCreated {
		return true
	}
	if to == StateFailed {
		return !from.Terminal()
	}
	switch from {
	case StateCreated:
		return to == StateTranscribed
	case StateTranscribed:
		return to == StateSegmented || to == StateAudienceNormalized
	case StateSegmented:
		return to == StateAudienceNormalized
	case StateAudienceNormalized:
		return to == StateRewritten
	case StateRewritten:
		return to == StateSynthesized
	case StateSynthesized:
		return to == StateRemuxed
	default:
		return false
	}
}
