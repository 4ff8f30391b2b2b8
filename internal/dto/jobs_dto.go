package dto

// ReplayDeadLettersRequest bounds how many dead-lettered jobs one call moves.
type ReplayDeadLettersRequest struct {
	Max int `json:"max" validate:"omitempty,min=1,max=1000"`
}

type ReplayDeadLettersResponse struct {
	Queue    string `json:"queue"`
	Replayed int    `json:"replayed"`
}

type DeadLetterStatsResponse struct {
	Queues map[string]int64 `json:"queues"`
}
