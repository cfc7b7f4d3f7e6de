// internal/collector/collector.go
//
// Orchestration of one collection pass: fetch channel messages, build
// records, upsert into the store, note the run.
// Two entry points:
//   - Collect: full walk bounded by the configured caps.
//   - Update: incremental walk from the stored watermark, minus a few days
//     of leeway so messages posted around the last run are not missed
//     (pages arrive in chunks; the upsert dedupes the overlap).

package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/puzzletrack/internal/discord"
	"github.com/robalobadob/puzzletrack/internal/records"
	"github.com/robalobadob/puzzletrack/internal/store"
)

// leeway is how far behind the watermark an incremental update re-fetches.
const leeway = 3 * 24 * time.Hour

// Collector ties the Discord client to the record store.
type Collector struct {
	client    *discord.Client
	store     *store.Store
	channelID string

	PageLimit   int
	MaxMessages int
}

// New builds a Collector for one channel.
func New(client *discord.Client, st *store.Store, channelID string) *Collector {
	return &Collector{client: client, store: st, channelID: channelID}
}

// Stats summarizes one collection pass.
type Stats struct {
	RunID    string
	Fetched  int
	Inserted int
	Elapsed  time.Duration
}

// Collect walks the channel back to since (zero = as far as the caps
// allow) and stores every message as exactly one record.
func (c *Collector) Collect(ctx context.Context, since time.Time) (Stats, error) {
	started := time.Now()
	runID := uuid.NewString()

	msgs, err := c.client.ChannelMessages(ctx, c.channelID, discord.FetchOptions{
		PageLimit:   c.PageLimit,
		MaxMessages: c.MaxMessages,
		Since:       since,
	})
	if err != nil {
		return Stats{}, err
	}
	fetchedTotal.Add(float64(len(msgs)))

	rows := records.Build(msgs)
	for _, r := range rows {
		parsedTotal.WithLabelValues(string(r.Game)).Inc()
	}

	inserted, err := c.store.Upsert(ctx, rows)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		RunID:    runID,
		Fetched:  len(msgs),
		Inserted: inserted,
		Elapsed:  time.Since(started),
	}
	runDuration.Observe(st.Elapsed.Seconds())

	if err := c.store.RecordRun(ctx, store.Run{
		ID:        runID,
		StartedAt: started,
		Fetched:   st.Fetched,
		Inserted:  st.Inserted,
	}); err != nil {
		// Bookkeeping only; the records themselves are already committed.
		log.Warn().Err(err).Str("run", runID).Msg("record collect run")
	}

	log.Info().
		Str("run", runID).
		Int("fetched", st.Fetched).
		Int("inserted", st.Inserted).
		Dur("elapsed", st.Elapsed).
		Msg("collection pass done")
	return st, nil
}

// Update runs an incremental pass from the stored watermark minus leeway.
// An empty store degrades to a full Collect.
func (c *Collector) Update(ctx context.Context) (Stats, error) {
	latest, err := c.store.LatestTimestamp(ctx)
	if err != nil {
		return Stats{}, err
	}
	since := time.Time{}
	if !latest.IsZero() {
		since = latest.Add(-leeway)
	}
	return c.Collect(ctx, since)
}
