package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	fieldEnergy = "energy_kwh"
	fieldCO2    = "co2_kg"
)

// RedisStore persists a session in a hash of totals and a list of history entries.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedisStore returns a store for the named session. Keys are "ecocode:session:<name>:{totals,history}".
func NewRedisStore(client *redis.Client, name string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: client,
		key:    "ecocode:session:" + name,
		logger: logger,
	}
}

func (s *RedisStore) totalsKey() string  { return s.key + ":totals" }
func (s *RedisStore) historyKey() string { return s.key + ":history" }

// Append adds the entry to the totals and history in a single MULTI/EXEC transaction.
func (s *RedisStore) Append(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrByFloat(ctx, s.totalsKey(), fieldEnergy, e.SavingsKWH)
		pipe.HIncrByFloat(ctx, s.totalsKey(), fieldCO2, e.CO2Kg)
		pipe.RPush(ctx, s.historyKey(), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append session entry: %w", err)
	}

	s.logger.DebugContext(ctx, "session entry stored", "key", s.key, "entry_id", e.ID, "file", e.File)
	return nil
}

// Load reads the totals and full history.
func (s *RedisStore) Load(ctx context.Context) (Analytics, error) {
	totals, err := s.client.HGetAll(ctx, s.totalsKey()).Result()
	if err != nil {
		return Analytics{}, fmt.Errorf("load session totals: %w", err)
	}
	items, err := s.client.LRange(ctx, s.historyKey(), 0, -1).Result()
	if err != nil {
		return Analytics{}, fmt.Errorf("load session history: %w", err)
	}
	return decodeAnalytics(totals, items)
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeAnalytics(totals map[string]string, items []string) (Analytics, error) {
	var a Analytics
	var err error
	if v, ok := totals[fieldEnergy]; ok {
		if a.TotalEnergyKWH, err = strconv.ParseFloat(v, 64); err != nil {
			return Analytics{}, fmt.Errorf("parse %s: %w", fieldEnergy, err)
		}
	}
	if v, ok := totals[fieldCO2]; ok {
		if a.TotalCO2Kg, err = strconv.ParseFloat(v, 64); err != nil {
			return Analytics{}, fmt.Errorf("parse %s: %w", fieldCO2, err)
		}
	}

	a.History = make([]Entry, 0, len(items))
	for i, item := range items {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return Analytics{}, fmt.Errorf("parse history entry %d: %w", i, err)
		}
		a.History = append(a.History, e)
	}
	return a, nil
}
