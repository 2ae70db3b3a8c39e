package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeKeyExpireSweep = "key:expire:sweep"
)

type KeyExpireSweepPayload struct{}

func NewKeyExpireSweepTask(opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(KeyExpireSweepPayload{})
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(1 * time.Hour)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypeKeyExpireSweep, payloadBytes, allOpts...), nil
}
