package launcher

import (
	"time"

	"github.com/p-blackswan/fluxdock/internal/flux"
)

// DefaultDelay is the pause between consecutive window launches.
const DefaultDelay = 300 * time.Millisecond

// Launch is one queued window open.
type Launch struct {
	App   string         `json:"app"`
	Kinds []flux.Kind    `json:"kinds"` // artifacts carried; two for the brand composite
	Props map[string]any `json:"props,omitempty"`
}

// Sleeper pauses between launches.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(d time.Duration)

func (f SleeperFunc) Sleep(d time.Duration) { f(d) }

// RealSleeper blocks on the wall clock.
var RealSleeper Sleeper = SleeperFunc(time.Sleep)

// Sequencer runs launches strictly in order with a fixed pause between
// consecutive ones. It has no cancellation: once started it runs to the end.
type Sequencer struct {
	delay   time.Duration
	sleeper Sleeper
}

// NewSequencer creates a sequencer. A nil sleeper uses the wall clock.
func NewSequencer(delay time.Duration, sleeper Sleeper) *Sequencer {
	if sleeper == nil {
		sleeper = RealSleeper
	}
	return &Sequencer{delay: delay, sleeper: sleeper}
}

// Run calls open for each launch, sleeping between calls, and returns the
// number of launches performed.
func (s *Sequencer) Run(launches []Launch, open func(Launch)) int {
	for i, l := range launches {
		if i > 0 && s.delay > 0 {
			s.sleeper.Sleep(s.delay)
		}
		open(l)
	}
	return len(launches)
}

// Plan lists the launches for a bundle: the brand composite first when a
// palette or tone is present, then every other present artifact in key order.
func Plan(result flux.Result, prompt string) []Launch {
	var plan []Launch

	if result.Has(flux.KindPalette) || result.Has(flux.KindTone) {
		var kinds []flux.Kind
		for _, k := range []flux.Kind{flux.KindPalette, flux.KindTone} {
			if result.Has(k) {
				kinds = append(kinds, k)
			}
		}
		plan = append(plan, Launch{
			App:   AppBrand,
			Kinds: kinds,
			Props: BrandPayload(result.Get(flux.KindPalette), result.Get(flux.KindTone)),
		})
	}

	for _, k := range result.Present() {
		route, ok := RouteFor(k)
		if !ok || route.Shape == ShapeBrand {
			continue
		}
		plan = append(plan, Launch{
			App:   route.App,
			Kinds: []flux.Kind{k},
			Props: ShapePayload(route, result.Get(k), prompt),
		})
	}
	return plan
}
