package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/resolver"
	"github.com/couchcryptid/nearby-hospitals/internal/view"
)

type decision int

const (
	decisionNone decision = iota
	decisionConfirm
	decisionCancel
)

// mapInput is one line of map input: a gesture, or a decision on the
// pending gesture.
type mapInput struct {
	event    resolver.OverrideEvent
	decision decision
}

// terminalMap is a line-oriented map surface. Each "lat,lng" line read from
// in is a click; a leading "drag " marks the line as a marker drag. "y" and
// "n" answer a pending move.
type terminalMap struct {
	ctx    context.Context
	out    io.Writer
	logger *slog.Logger
	inputs chan mapInput

	overridesOnce sync.Once
	overrides     chan resolver.OverrideEvent
}

func newTerminalMap(ctx context.Context, in io.Reader, out io.Writer, logger *slog.Logger) *terminalMap {
	m := &terminalMap{
		ctx:       ctx,
		out:       out,
		logger:    logger,
		inputs:    make(chan mapInput),
		overrides: make(chan resolver.OverrideEvent),
	}
	go m.read(in)
	return m
}

func (m *terminalMap) read(in io.Reader) {
	defer close(m.inputs)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		input, err := parseInput(line)
		if err != nil {
			m.logger.Warn("ignoring map input", "line", line, "error", err)
			continue
		}
		select {
		case m.inputs <- input:
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *terminalMap) SetView(center domain.Coordinate, zoom int) {
	fmt.Fprintf(m.out, "[map] center %s zoom %d\n", center, zoom)
}

func (m *terminalMap) SetMarkers(markers []view.Marker) {
	for _, mk := range markers {
		sel := ""
		if mk.Selected {
			sel = " *"
		}
		fmt.Fprintf(m.out, "[map] %-8s %s %s%s\n", mk.Kind, mk.Coordinate, mk.Title, sel)
	}
}

// Inputs returns every line of map input in order. Use either Inputs or
// Overrides, not both.
func (m *terminalMap) Inputs() <-chan mapInput {
	return m.inputs
}

// Overrides returns only the gestures; decisions have nothing to answer
// without the confirm gate and are dropped.
func (m *terminalMap) Overrides() <-chan resolver.OverrideEvent {
	m.overridesOnce.Do(func() {
		go func() {
			defer close(m.overrides)
			for in := range m.inputs {
				if in.decision != decisionNone {
					m.logger.Warn("no pending move to confirm or cancel")
					continue
				}
				select {
				case m.overrides <- in.event:
				case <-m.ctx.Done():
					return
				}
			}
		}()
	})
	return m.overrides
}

func parseInput(line string) (mapInput, error) {
	switch strings.ToLower(line) {
	case "y", "yes":
		return mapInput{decision: decisionConfirm}, nil
	case "n", "no":
		return mapInput{decision: decisionCancel}, nil
	}
	ev, err := parseGesture(line)
	if err != nil {
		return mapInput{}, err
	}
	return mapInput{event: ev}, nil
}

func parseGesture(line string) (resolver.OverrideEvent, error) {
	trigger := resolver.TriggerClick
	if rest, ok := strings.CutPrefix(line, "drag "); ok {
		trigger = resolver.TriggerDrag
		line = rest
	}
	latStr, lngStr, ok := strings.Cut(line, ",")
	if !ok {
		return resolver.OverrideEvent{}, fmt.Errorf("%w: want \"lat,lng\"", domain.ErrInvalidCoordinate)
	}
	c, err := parseLatLng(latStr, lngStr)
	if err != nil {
		return resolver.OverrideEvent{}, err
	}
	return resolver.OverrideEvent{Coordinate: c, Trigger: trigger}, nil
}
