package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Domenick1991/flightbot/internal/domain"
	"github.com/Domenick1991/flightbot/internal/format"
)

const newInfo = "**NEW INFO**"

// interesting maps the fields whose changes are worth a notification to the
// line that renders them.
var interesting = map[string]format.Renderer{
	FieldAircraftType: (*format.Formatter).Aircraft,
	FieldAircraftReg:  (*format.Formatter).Aircraft,
	FieldGate:         (*format.Formatter).Gate,
	FieldStand:        (*format.Formatter).Stand,
	FieldStatusText:   (*format.Formatter).Status,
	FieldEstimated:    (*format.Formatter).Estimated,
	FieldActual:       (*format.Formatter).Actual,
	FieldBaggageClaim: (*format.Formatter).Baggage,
}

// composeNotification returns the notification text for the changes between
// prev and next, or false when none of them is worth sending.
func (t *TrackedFlight) composeNotification(prev, next *domain.FlightRecord, changes []Change) (string, bool) {
	nf := format.New(next, t.s.loc)
	pf := format.New(prev, t.s.loc)

	var lines []string
	if line, err := nf.Name(); err == nil {
		lines = append(lines, line)
	}
	if line, err := nf.Time(); err == nil {
		lines = append(lines, line)
	}
	if line, err := pf.Estimated(); err == nil {
		lines = append(lines, line)
	}
	lines = append(lines, "", newInfo)
	header := len(lines)

	seen := make(map[string]bool)
	for _, c := range changes {
		if c.Kind != ChangeChanged {
			continue
		}
		render, ok := interesting[c.Field]
		if !ok {
			continue
		}
		if c.Field == FieldEstimated && !t.estimateMoved(prev, next) {
			continue
		}
		line, err := render(nf)
		if err != nil || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}

	if len(lines) == header {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// estimateMoved is false for re-estimates smaller than the threshold.
func (t *TrackedFlight) estimateMoved(prev, next *domain.FlightRecord) bool {
	before, okBefore := prev.EstimatedTime()
	after, okAfter := next.EstimatedTime()
	if !okBefore || !okAfter {
		return true
	}
	delta := after.Sub(before)
	if delta < 0 {
		delta = -delta
	}
	return delta >= t.s.estimateThreshold
}

func (t *TrackedFlight) sendNotifies(ctx context.Context, prev, next *domain.FlightRecord, changes []Change) {
	text, ok := t.composeNotification(prev, next, changes)
	if !ok {
		return
	}

	for _, user := range t.users {
		t.s.send(ctx, user, text)
	}

	channels := make([]int64, 0, len(t.chans))
	for channel := range t.chans {
		channels = append(channels, channel)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	for _, channel := range channels {
		mentions := make([]string, 0, len(t.chans[channel]))
		for _, sub := range t.chans[channel] {
			mentions = append(mentions, mention(sub))
		}
		t.s.send(ctx, channel, strings.Join(mentions, " ")+"\n"+text)
	}
}

func mention(sub domain.Subscriber) string {
	return fmt.Sprintf("[%s](tg://user?id=%d)", sub.DisplayName, sub.UserID)
}
