package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/hexatask/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexatask/internal/shared/infra/platform/bus"
	sharedUtils "github.com/davicafu/hexatask/internal/shared/infra/utils"
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
)

const handleTimeout = 5 * time.Second

// TaskReleaser es lo que el consumidor necesita del servicio de tareas.
type TaskReleaser interface {
	ReleaseTasksOfUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// TaskConsumer reacciona en el contexto Task a los eventos de usuarios.
// Un usuario desactivado o borrado libera sus tareas abiertas.
type TaskConsumer struct {
	service TaskReleaser
	log     *zap.Logger
}

func NewTaskConsumer(service TaskReleaser, logger *zap.Logger) *TaskConsumer {
	return &TaskConsumer{
		service: service,
		log:     logger,
	}
}

var _ sharedBus.MessageHandler = (*TaskConsumer)(nil)

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *TaskConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case userDomain.UserDeactivated:
		sharedUtils.UnmarshalAndHandle(c.log, base.Data, func(evt sharedEvents.UserDeactivated) {
			c.release(ctx, evt.ID, base.Type)
		})

	case userDomain.UserDeleted:
		sharedUtils.UnmarshalAndHandle(c.log, base.Data, func(evt sharedEvents.UserDeleted) {
			c.release(ctx, evt.ID, base.Type)
		})

	default:
		// el topic de usuarios lleva más tipos de los que interesan aquí
		c.log.Debug("Ignoring user event", zap.String("type", base.Type), zap.String("key", key))
	}
}

func (c *TaskConsumer) release(ctx context.Context, userID uuid.UUID, eventType string) {
	ctxRelease, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	released, err := c.service.ReleaseTasksOfUser(ctxRelease, userID)
	if err != nil {
		c.log.Warn("Failed to release tasks of user",
			zap.String("user_id", userID.String()),
			zap.String("event", eventType),
			zap.Int("released", released),
			zap.Error(err),
		)
		return
	}
	c.log.Info("📤 Tasks released after user event",
		zap.String("user_id", userID.String()),
		zap.String("event", eventType),
		zap.Int("released", released),
	)
}
