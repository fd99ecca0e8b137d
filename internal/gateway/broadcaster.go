package gateway

import (
	"encoding/json"
	"strconv"
	"time"
)

// buildEnvelope wraps a raw JSON payload as
// {"channel":...,"data":...,"ts":...,"channel_seq":N}.
func buildEnvelope(channel string, data []byte, ts time.Time, seq int64, initial bool) []byte {
	ch, _ := json.Marshal(channel)

	buf := make([]byte, 0, len(ch)+len(data)+96)
	buf = append(buf, `{"channel":`...)
	buf = append(buf, ch...)
	buf = append(buf, `,"data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = ts.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","channel_seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	if initial {
		buf = append(buf, `,"initial":true`...)
	}
	buf = append(buf, '}')
	return buf
}

// broadcast records data as the latest report of channel and queues the
// envelope on every subscribed client. Clients whose send buffer is full
// miss the message.
func (h *Hub) broadcast(channel string, data []byte, now time.Time) {
	if !json.Valid(data) {
		return
	}
	data = append(json.RawMessage(nil), data...)

	h.mu.Lock()
	h.channelSeqs[channel]++
	seq := h.channelSeqs[channel]
	h.latest[channel] = latestEntry{Data: data, TS: now, Seq: seq}
	rb, ok := h.replayBufs[channel]
	if !ok {
		rb = NewReplayBuffer(replayPerChan)
		h.replayBufs[channel] = rb
	}
	h.mu.Unlock()

	env := buildEnvelope(channel, data, now, seq, false)
	rb.Push(seq, env)

	dropped := 0
	h.mu.RLock()
	for c := range h.clients {
		if !c.matchesChannel(channel) {
			continue
		}
		select {
		case c.send <- env:
		default:
			dropped++
		}
	}
	h.mu.RUnlock()

	if dropped > 0 && h.metrics != nil {
		h.metrics.WSDrops.Add(float64(dropped))
	}
}
