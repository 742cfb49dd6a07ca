package service

import (
	"context"
	"time"

	"schedule-agent/core/queue"
	"schedule-agent/modules/schedule/dto"

	"github.com/hibiken/asynq"
)

// HandleMaterializeHorizonTask keeps the next payload.Days days materialized.
func (s *BookingService) HandleMaterializeHorizonTask(ctx context.Context, task *asynq.Task) error {
	var payload dto.MaterializeHorizonPayload
	if err := queue.Decode(task, &payload); err != nil {
		return err
	}
	if payload.Days <= 0 {
		return nil
	}
	_, err := s.EnsureHorizon(ctx, time.Now(), payload.Days)
	return err
}
