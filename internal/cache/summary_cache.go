package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tasterr/tasterr/internal/services"
)

// SummaryCache caches aggregated survey summaries. Summaries are rebuilt on
// demand, so a miss is never an error and stale entries only persist until
// the next submission invalidates them.
type SummaryCache interface {
	Get(ctx context.Context, surveyID string) (*services.SurveySummary, error)
	Set(ctx context.Context, summary *services.SurveySummary) error
	Invalidate(ctx context.Context, surveyID string) error
}

const summaryTTL = 5 * time.Minute

type redisSummaryCache struct {
	client *redis.Client
}

func NewRedisSummaryCache(client *redis.Client) SummaryCache {
	return &redisSummaryCache{client: client}
}

func summaryKey(surveyID string) string {
	return fmt.Sprintf("survey:%s:summary", surveyID)
}

func (c *redisSummaryCache) Get(ctx context.Context, surveyID string) (*services.SurveySummary, error) {
	raw, err := c.client.Get(ctx, summaryKey(surveyID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary services.SurveySummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *redisSummaryCache) Set(ctx context.Context, summary *services.SurveySummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(summary.SurveyID), raw, summaryTTL).Err()
}

func (c *redisSummaryCache) Invalidate(ctx context.Context, surveyID string) error {
	return c.client.Del(ctx, summaryKey(surveyID)).Err()
}
