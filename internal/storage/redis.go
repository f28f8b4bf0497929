package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/models"

	"go.uber.org/zap"
)

// ErrRedisUnavailable is returned by redis-backed methods on a Service built without a client.
var ErrRedisUnavailable = errors.New("storage: redis client not configured")

const draftStepField = "_step"

func draftKey(userID int64) string {
	return config.ProfileDraftKeyPrefix + strconv.FormatInt(userID, 10)
}

// SaveDraft зберігає чернетку анкети як redis hash і оновлює TTL.
// Поточний крок лежить в окремому полі поруч із відповідями.
func (s *Service) SaveDraft(ctx context.Context, userID int64, draft *models.ProfileDraft) error {
	if s.Redis == nil {
		return ErrRedisUnavailable
	}
	key := draftKey(userID)

	values := make(map[string]interface{}, len(draft.Answers)+1)
	values[draftStepField] = draft.Step
	for step, answer := range draft.Answers {
		values[step] = answer
	}

	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, values)
	pipe.Expire(ctx, key, config.ProfileDraftTTL)
	_, err := pipe.Exec(ctx)
	return WrapRedisError(err)
}

// GetDraft повертає ErrNotFound, якщо анкета не заповнюється або чернетка прострочена.
func (s *Service) GetDraft(ctx context.Context, userID int64) (*models.ProfileDraft, error) {
	if s.Redis == nil {
		return nil, ErrRedisUnavailable
	}
	fields, err := s.Redis.HGetAll(ctx, draftKey(userID)).Result()
	if err != nil {
		return nil, WrapRedisError(err)
	}
	step, ok := fields[draftStepField]
	if !ok {
		return nil, ErrNotFound
	}
	delete(fields, draftStepField)
	return &models.ProfileDraft{Step: step, Answers: fields}, nil
}

func (s *Service) ClearDraft(ctx context.Context, userID int64) error {
	if s.Redis == nil {
		return ErrRedisUnavailable
	}
	return WrapRedisError(s.Redis.Del(ctx, draftKey(userID)).Err())
}

// PublishEvent публікує подію сесії в Redis Pub/Sub.
func (s *Service) PublishEvent(ctx context.Context, event models.SessionEvent) error {
	if s.Redis == nil {
		return ErrRedisUnavailable
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return WrapRedisError(s.Redis.Publish(ctx, config.EventsChannel, payload).Err())
}

// SubscribeEvents слухає канал подій, доки не завершиться ctx або не буде
// викликано stop. Пошкоджені повідомлення логуються і пропускаються.
func (s *Service) SubscribeEvents(ctx context.Context) (<-chan models.SessionEvent, func(), error) {
	if s.Redis == nil {
		return nil, nil, ErrRedisUnavailable
	}
	pubsub := s.Redis.Subscribe(ctx, config.EventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, WrapRedisError(err)
	}

	out := make(chan models.SessionEvent, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event models.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				zap.S().Warnw("skipping malformed session event", "error", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() { _ = pubsub.Close() }
	go func() {
		<-ctx.Done()
		stop()
	}()
	return out, stop, nil
}
