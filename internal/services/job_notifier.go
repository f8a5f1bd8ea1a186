package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/sse"
)

// JobNotifier publishes job lifecycle events on the owning project's
// channel.
type JobNotifier interface {
	JobCreated(projectID uuid.UUID, job *types.ProcessingJob)
	JobProgress(projectID uuid.UUID, job *types.ProcessingJob, stage string, progress int, message string)
	JobFailed(projectID uuid.UUID, job *types.ProcessingJob, stage string, errorMessage string)
	JobDone(projectID uuid.UUID, job *types.ProcessingJob)
}

// SSEPublisher pushes a message onto a cross-replica channel.
type SSEPublisher interface {
	Publish(ctx context.Context, msg sse.SSEMessage) error
}

type jobNotifier struct {
	hub *sse.SSEHub
	bus SSEPublisher
	log *logger.Logger
}

func NewJobNotifier(hub *sse.SSEHub) JobNotifier {
	return &jobNotifier{hub: hub}
}

// NewBusJobNotifier routes events through a shared bus instead of the
// local hub. The bus forwarder (subscribed on every replica, this one
// included) is what delivers them into each hub.
func NewBusJobNotifier(baseLog *logger.Logger, bus SSEPublisher) JobNotifier {
	return &jobNotifier{
		bus: bus,
		log: baseLog.With("service", "JobNotifier"),
	}
}

func (n *jobNotifier) emit(msg sse.SSEMessage) {
	if n.bus != nil {
		if err := n.bus.Publish(context.Background(), msg); err != nil && n.log != nil {
			n.log.Warn("SSE bus publish failed", "channel", msg.Channel, "event", msg.Event, "error", err)
		}
		return
	}
	n.hub.Broadcast(msg)
}

func (n *jobNotifier) JobCreated(projectID uuid.UUID, job *types.ProcessingJob) {
	n.emit(sse.SSEMessage{
		Channel: projectID.String(),
		Event:   sse.SSEEventJobCreated,
		Data:    map[string]any{"job": job},
	})
}

func (n *jobNotifier) JobProgress(projectID uuid.UUID, job *types.ProcessingJob, stage string, progress int, message string) {
	n.emit(sse.SSEMessage{
		Channel: projectID.String(),
		Event:   sse.SSEEventJobProgress,
		Data: map[string]any{
			"job_id":   job.ID,
			"stage":    stage,
			"progress": progress,
			"message":  message,
			"job":      job,
		},
	})
}

func (n *jobNotifier) JobFailed(projectID uuid.UUID, job *types.ProcessingJob, stage string, errorMessage string) {
	n.emit(sse.SSEMessage{
		Channel: projectID.String(),
		Event:   sse.SSEEventJobFailed,
		Data: map[string]any{
			"job_id": job.ID,
			"stage":  stage,
			"error":  errorMessage,
			"job":    job,
		},
	})
}

func (n *jobNotifier) JobDone(projectID uuid.UUID, job *types.ProcessingJob) {
	n.emit(sse.SSEMessage{
		Channel: projectID.String(),
		Event:   sse.SSEEventJobDone,
		Data: map[string]any{
			"job_id": job.ID,
			"stage":  job.Stage,
			"job":    job,
		},
	})
}
