package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"

	"okx-analysis/internal/model"
	"okx-analysis/internal/signal"
)

// Alerter watches published signal reports and raises an alert whenever a
// channel's recommendation changes. The first report of a channel only
// alerts when it is already at one of the strong extremes.
type Alerter struct {
	notifier Notifier

	mu   sync.Mutex
	last map[string]string
}

var _ model.ReportPublisher = (*Alerter)(nil)

// NewAlerter creates an Alerter that delivers through n.
func NewAlerter(n Notifier) *Alerter {
	return &Alerter{notifier: n, last: make(map[string]string)}
}

// Publish inspects a report payload and forwards an alert if warranted.
func (a *Alerter) Publish(ctx context.Context, channel string, payload []byte) error {
	rep := gjson.ParseBytes(payload)
	rec := rep.Get("recommendation").String()
	if rec == "" {
		return nil
	}

	a.mu.Lock()
	prev, seen := a.last[channel]
	a.last[channel] = rec
	a.mu.Unlock()

	strong := isStrong(rec)
	if (seen && prev == rec) || (!seen && !strong) {
		return nil
	}

	level := AlertInfo
	if strong {
		level = AlertWarning
	}
	score := int(rep.Get("score").Int())
	title := fmt.Sprintf("%s %s: %s", rep.Get("instId").String(), rep.Get("bar").String(), rec)
	msg := fmt.Sprintf("score %d/%d", score, rep.Get("maxScore").Int())
	if seen {
		msg = fmt.Sprintf("%s (was %s)", msg, prev)
	}

	return a.notifier.Send(ctx, Alert{
		Level:          level,
		Title:          title,
		Message:        msg,
		Channel:        channel,
		Score:          score,
		Recommendation: rec,
	})
}

func isStrong(rec string) bool {
	return rec == string(signal.StrongBullish) || rec == string(signal.StrongBearish)
}
