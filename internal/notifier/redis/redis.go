package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/notifier"
)

const (
	defaultPrefix    = "companion:reminders"
	permissionDenied = "denied"
)

type Config struct {
	URL          string
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

// Platform stores registrations in Redis so the dispatcher process can fire
// them: a due-time sorted set per patient plus one JSON request per handle.
type Platform struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewClient(cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewPlatform(client *redis.Client, prefix string) *Platform {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Platform{client: client, prefix: prefix, now: time.Now}
}

func (p *Platform) Factory() notifier.Factory {
	return func(patientID string) notifier.Notifier {
		return &patientNotifier{platform: p, patientID: patientID}
	}
}

func (p *Platform) patientsKey() string {
	return p.prefix + ":patients"
}

func (p *Platform) dueKey(patientID string) string {
	return fmt.Sprintf("%s:%s:due", p.prefix, patientID)
}

func (p *Platform) requestKey(patientID, handle string) string {
	return fmt.Sprintf("%s:%s:req:%s", p.prefix, patientID, handle)
}

func (p *Platform) permissionKey(patientID string) string {
	return fmt.Sprintf("%s:%s:permission", p.prefix, patientID)
}

func score(t time.Time) float64 {
	return float64(t.Unix())
}

// Due collects registrations across patients whose fire instant has passed.
func (p *Platform) Due(ctx context.Context, now time.Time, limit int) ([]notifier.Due, error) {
	patients, err := p.client.SMembers(ctx, p.patientsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	var due []notifier.Due
	for _, patientID := range patients {
		if limit > 0 && len(due) >= limit {
			break
		}

		rangeBy := &redis.ZRangeBy{Min: "-inf", Max: strconv.FormatInt(now.Unix(), 10)}
		if limit > 0 {
			rangeBy.Count = int64(limit - len(due))
		}
		entries, err := p.client.ZRangeByScoreWithScores(ctx, p.dueKey(patientID), rangeBy).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read due reminders for %s: %w", patientID, err)
		}

		for _, z := range entries {
			handle, _ := z.Member.(string)
			raw, err := p.client.Get(ctx, p.requestKey(patientID, handle)).Bytes()
			if errors.Is(err, redis.Nil) {
				// Orphaned score without a payload.
				p.client.ZRem(ctx, p.dueKey(patientID), handle)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read reminder %s: %w", handle, err)
			}

			var req model.NotificationRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return nil, fmt.Errorf("failed to decode reminder %s: %w", handle, err)
			}
			due = append(due, notifier.Due{
				PatientID: patientID,
				Handle:    handle,
				DueAt:     time.Unix(int64(z.Score), 0),
				Request:   req,
			})
		}
	}
	return due, nil
}

// Rearm moves a repeating registration to its next occurrence; one-shot
// registrations are removed after they fire.
func (p *Platform) Rearm(ctx context.Context, d notifier.Due, firedAt time.Time) error {
	after := firedAt
	if d.DueAt.After(after) {
		after = d.DueAt
	}

	if d.Request.Trigger.Repeats {
		if next, ok := d.Request.Trigger.Next(after); ok {
			return p.client.ZAddXX(ctx, p.dueKey(d.PatientID), redis.Z{Score: score(next), Member: d.Handle}).Err()
		}
	}

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, p.dueKey(d.PatientID), d.Handle)
		pipe.Del(ctx, p.requestKey(d.PatientID, d.Handle))
		return nil
	})
	return err
}

type patientNotifier struct {
	platform  *Platform
	patientID string
}

func (n *patientNotifier) RequestPermission(ctx context.Context) (bool, error) {
	v, err := n.platform.client.Get(ctx, n.platform.permissionKey(n.patientID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read permission: %w", err)
	}
	return v != permissionDenied, nil
}

func (n *patientNotifier) SetPermission(ctx context.Context, granted bool) error {
	if granted {
		return n.platform.client.Del(ctx, n.platform.permissionKey(n.patientID)).Err()
	}
	return n.platform.client.Set(ctx, n.platform.permissionKey(n.patientID), permissionDenied, 0).Err()
}

func (n *patientNotifier) Schedule(ctx context.Context, req model.NotificationRequest) (string, error) {
	next, ok := req.Trigger.Next(n.platform.now())
	if !ok {
		return "", notifier.ErrTriggerInPast
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode reminder: %w", err)
	}

	handle := uuid.NewString()
	p := n.platform
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.requestKey(n.patientID, handle), payload, 0)
		pipe.ZAdd(ctx, p.dueKey(n.patientID), redis.Z{Score: score(next), Member: handle})
		pipe.SAdd(ctx, p.patientsKey(), n.patientID)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to register reminder: %w", err)
	}
	return handle, nil
}

func (n *patientNotifier) Cancel(ctx context.Context, handle string) error {
	p := n.platform
	removed, err := p.client.ZRem(ctx, p.dueKey(n.patientID), handle).Result()
	if err != nil {
		return fmt.Errorf("failed to cancel reminder: %w", err)
	}
	if err := p.client.Del(ctx, p.requestKey(n.patientID, handle)).Err(); err != nil {
		return fmt.Errorf("failed to delete reminder payload: %w", err)
	}
	if removed == 0 {
		return notifier.ErrUnknownHandle
	}
	return nil
}

func (n *patientNotifier) CancelAll(ctx context.Context) error {
	p := n.platform
	handles, err := p.client.ZRange(ctx, p.dueKey(n.patientID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list reminders: %w", err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, h := range handles {
			pipe.Del(ctx, p.requestKey(n.patientID, h))
		}
		pipe.Del(ctx, p.dueKey(n.patientID))
		pipe.SRem(ctx, p.patientsKey(), n.patientID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cancel reminders: %w", err)
	}
	return nil
}
