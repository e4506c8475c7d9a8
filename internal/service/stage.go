package service

// Stage is a step in a capture request's lifecycle.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageGateChecked Stage = "gate_checked"
	StageCaptured    Stage = "captured"
	StageNormalized  Stage = "normalized"
	StageScaled      Stage = "scaled"
	StageEncoded     Stage = "encoded"
	StageRecognized  Stage = "recognized"
	StagePersisted   Stage = "persisted"
	StageReturned    Stage = "returned"
	StageFailed      Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageReturned || s == StageFailed
}
