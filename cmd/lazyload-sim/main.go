// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command lazyload-sim replays a scenario against a virtual clock, reporting
// when (and by which trigger) the load was activated.
//
// Usage:
//
//	lazyload-sim -scenario scenario.toml [-json] [-v]
//
// A scenario declares the viewport, elements, triggers, and a timeline of
// actions, e.g.
//
//	[viewport]
//	width = 1024
//	height = 768
//
//	[[element]]
//	id = "comments"
//	y = 2000
//	width = 1024
//	height = 400
//
//	[loader]
//	value = "comments.js"
//
//	[[trigger]]
//	on = "visible"
//	target = "comments"
//
//	[[trigger]]
//	on = "delay"
//	delay = 5000
//
//	[[action]]
//	at_ms = 1500
//	do = "scroll"
//	y = 1400
//
//	[expect]
//	loaded_at_ms = 1500
//	trigger = "visible"
//
// Exit status is 0 on success, 1 if an expectation failed, and 2 on usage
// or scenario errors.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-lazyload"
	"github.com/joeycumines/go-lazyload/host"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

type (
	scenario struct {
		Viewport viewportSpec           `toml:"viewport"`
		Loader   loaderSpec             `toml:"loader"`
		Expect   *expectSpec            `toml:"expect"`
		Idle     *bool                  `toml:"idle"`
		Elements []elementSpec          `toml:"element"`
		Triggers []lazyload.TriggerSpec `toml:"trigger"`
		Actions  []actionSpec           `toml:"action"`
		UntilMS  int64                  `toml:"until_ms"`
	}

	viewportSpec struct {
		Width  float64 `toml:"width"`
		Height float64 `toml:"height"`
	}

	elementSpec struct {
		ID     string  `toml:"id"`
		X      float64 `toml:"x"`
		Y      float64 `toml:"y"`
		Width  float64 `toml:"width"`
		Height float64 `toml:"height"`
	}

	loaderSpec struct {
		Value string `toml:"value"`
		Error string `toml:"error"`
	}

	actionSpec struct {
		Do     string  `toml:"do"`
		Target string  `toml:"target"`
		Event  string  `toml:"event"`
		AtMS   int64   `toml:"at_ms"`
		X      float64 `toml:"x"`
		Y      float64 `toml:"y"`
		Width  float64 `toml:"width"`
		Height float64 `toml:"height"`
	}

	// expectSpec models assertions, a nil LoadedAtMS meaning never
	expectSpec struct {
		LoadedAtMS *int64 `toml:"loaded_at_ms"`
		Trigger    string `toml:"trigger"`
		State      string `toml:"state"`
	}

	report struct {
		RunID         string   `json:"runId"`
		ActivatedAtMS *int64   `json:"activatedAtMs"`
		TriggerIndex  *int     `json:"triggerIndex,omitempty"`
		Trigger       string   `json:"trigger,omitempty"`
		State         string   `json:"state"`
		Value         string   `json:"value,omitempty"`
		Error         string   `json:"error,omitempty"`
		SetupErrors   []string `json:"setupErrors,omitempty"`
		Failures      []string `json:"failures,omitempty"`
	}
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2

	defaultViewportWidth  = 1024
	defaultViewportHeight = 768

	// settleTimeout bounds the wall time spent awaiting the loader
	settleTimeout = 10 * time.Second

	// maxTimelineMS leaves headroom for the default horizon, which adds
	// lazyload.IdleFallbackDelay to the last action
	maxTimelineMS = lazyload.MaxDelayMillis / 2
)

var errScenario = errors.New(`invalid scenario`)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(`lazyload-sim`, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		scenarioPath = fs.String(`scenario`, ``, `path to the scenario (TOML)`)
		jsonOutput   = fs.Bool(`json`, false, `write the report as JSON`)
		verbose      = fs.Bool(`v`, false, `log debug events to stderr`)
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *scenarioPath == `` || fs.NArg() != 0 {
		fs.Usage()
		return exitUsage
	}

	level := logiface.LevelWarning
	if *verbose {
		level = logiface.LevelDebug
	}
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(stderr)),
		stumpy.L.WithLevel(level),
	).Logger()

	data, err := os.ReadFile(*scenarioPath)
	if err != nil {
		fmt.Fprintf(stderr, "lazyload-sim: %v\n", err)
		return exitUsage
	}
	sc, err := parseScenario(data)
	if err != nil {
		fmt.Fprintf(stderr, "lazyload-sim: %s: %v\n", *scenarioPath, err)
		return exitUsage
	}

	r, err := simulate(sc, logger)
	if err != nil {
		fmt.Fprintf(stderr, "lazyload-sim: %s: %v\n", *scenarioPath, err)
		return exitUsage
	}

	if *jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent(``, `  `)
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(stderr, "lazyload-sim: %v\n", err)
			return exitUsage
		}
	} else {
		writeText(stdout, r)
	}

	if len(r.Failures) != 0 {
		for _, failure := range r.Failures {
			fmt.Fprintf(stderr, "lazyload-sim: expectation failed: %s\n", failure)
		}
		return exitFailed
	}
	return exitOK
}

func parseScenario(data []byte) (*scenario, error) {
	sc := scenario{
		Viewport: viewportSpec{Width: defaultViewportWidth, Height: defaultViewportHeight},
	}
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&sc)
	if err != nil {
		return nil, fmt.Errorf(`%w: %w`, errScenario, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf(`%w: unknown keys: %s`, errScenario, strings.Join(keys, `, `))
	}
	if len(sc.Triggers) == 0 {
		return nil, fmt.Errorf(`%w: at least one [[trigger]] is required`, errScenario)
	}
	if sc.UntilMS < 0 || sc.UntilMS > maxTimelineMS {
		return nil, fmt.Errorf(`%w: until_ms out of range [0, %d]`, errScenario, int64(maxTimelineMS))
	}
	for i, action := range sc.Actions {
		if action.AtMS < 0 || action.AtMS > maxTimelineMS {
			return nil, fmt.Errorf(`%w: action[%d]: at_ms out of range [0, %d]`, errScenario, i, int64(maxTimelineMS))
		}
	}
	// stable, to preserve declaration order of simultaneous actions
	slices.SortStableFunc(sc.Actions, func(a, b actionSpec) int {
		switch {
		case a.AtMS < b.AtMS:
			return -1
		case a.AtMS > b.AtMS:
			return 1
		default:
			return 0
		}
	})
	return &sc, nil
}

func simulate(sc *scenario, logger *logiface.Logger[logiface.Event]) (*report, error) {
	opts := []host.LoopOption{host.WithLogger(logger)}
	if sc.Idle != nil {
		opts = append(opts, host.WithIdleSupport(*sc.Idle))
	}
	w, err := host.NewWindow(sc.Viewport.Width, sc.Viewport.Height, opts...)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	start := w.Now()

	for _, el := range sc.Elements {
		if _, err := w.CreateElement(el.ID, host.Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height}); err != nil {
			return nil, err
		}
	}
	w.RunPending()

	triggers, err := lazyload.ResolveSpecs(sc.Triggers, w)
	if err != nil {
		return nil, err
	}

	r := report{RunID: uuid.NewString()}
	logger = logger.Clone().Str(`run`, r.RunID).Logger()

	controller, err := lazyload.New(&lazyload.Config{
		Logger: logger,
		OnActivate: func(index int, kind lazyload.TriggerKind) {
			at := w.Now().Sub(start).Milliseconds()
			r.ActivatedAtMS = &at
			if index >= 0 {
				r.TriggerIndex = &index
				r.Trigger = string(kind)
			} else {
				r.Trigger = `manual`
			}
		},
	}, w, newLoader(sc.Loader), triggers...)
	if err != nil {
		return nil, err
	}
	if err := controller.Err(); err != nil {
		for _, err := range unwrapJoined(err) {
			r.SetupErrors = append(r.SetupErrors, err.Error())
		}
	}

	for i, action := range sc.Actions {
		w.Advance(start.Add(time.Duration(action.AtMS) * time.Millisecond).Sub(w.Now()))
		if err := perform(w, controller, action); err != nil {
			return nil, fmt.Errorf(`%w: action[%d]: %w`, errScenario, i, err)
		}
		w.RunPending()
	}

	until := sc.UntilMS
	if until == 0 {
		until = lazyload.IdleFallbackDelay.Milliseconds()
		if n := len(sc.Actions); n != 0 {
			until += sc.Actions[n-1].AtMS
		}
		for _, spec := range sc.Triggers {
			if spec.Delay != nil && *spec.Delay > until {
				until = *spec.Delay
			}
		}
	}
	if d := start.Add(time.Duration(until) * time.Millisecond).Sub(w.Now()); d > 0 {
		w.Advance(d)
	}

	if controller.HasLoaded() {
		ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		defer cancel()
		value, err := controller.TriggerContext(ctx)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Value = value
		}
	}
	r.State = controller.State().String()

	if sc.Expect != nil {
		r.Failures = check(sc.Expect, &r)
	}

	return &r, nil
}

func newLoader(spec loaderSpec) lazyload.Loader[string] {
	return func(context.Context) (string, error) {
		if spec.Error != `` {
			return ``, errors.New(spec.Error)
		}
		return spec.Value, nil
	}
}

func perform(w *host.Window, controller *lazyload.Controller[string], action actionSpec) error {
	switch action.Do {
	case `click`, `mousemove`, `event`:
		el := w.Element(action.Target)
		if el == nil {
			return fmt.Errorf(`unknown target %q`, action.Target)
		}
		eventType := action.Do
		if eventType == `event` {
			if action.Event == `` {
				return errors.New(`event requires an event name`)
			}
			eventType = action.Event
		}
		return w.Submit(func() { el.DispatchEvent(eventloop.NewEvent(eventType)) })

	case `scroll`:
		w.ScrollTo(action.X, action.Y)
		return nil

	case `resize`:
		return w.Resize(action.Width, action.Height)

	case `move`:
		el := w.Element(action.Target)
		if el == nil {
			return fmt.Errorf(`unknown target %q`, action.Target)
		}
		w.SetRect(el, host.Rect{X: action.X, Y: action.Y, Width: action.Width, Height: action.Height})
		return nil

	case `trigger`:
		controller.Trigger()
		return nil

	case `cancel`:
		controller.Cancel()
		return nil

	default:
		return fmt.Errorf(`unknown action %q`, action.Do)
	}
}

func check(expect *expectSpec, r *report) (failures []string) {
	switch {
	case expect.LoadedAtMS == nil && r.ActivatedAtMS != nil:
		failures = append(failures, fmt.Sprintf(`expected no load, activated at %dms`, *r.ActivatedAtMS))
	case expect.LoadedAtMS != nil && r.ActivatedAtMS == nil:
		failures = append(failures, fmt.Sprintf(`expected load at %dms, not activated`, *expect.LoadedAtMS))
	case expect.LoadedAtMS != nil && *expect.LoadedAtMS != *r.ActivatedAtMS:
		failures = append(failures, fmt.Sprintf(`expected load at %dms, activated at %dms`, *expect.LoadedAtMS, *r.ActivatedAtMS))
	}
	if expect.Trigger != `` && expect.Trigger != r.Trigger {
		failures = append(failures, fmt.Sprintf(`expected trigger %q, got %q`, expect.Trigger, r.Trigger))
	}
	if expect.State != `` && !strings.EqualFold(expect.State, r.State) {
		failures = append(failures, fmt.Sprintf(`expected state %q, got %q`, expect.State, r.State))
	}
	return
}

func writeText(w io.Writer, r *report) {
	if r.ActivatedAtMS == nil {
		fmt.Fprintln(w, `not activated`)
	} else if r.TriggerIndex != nil {
		fmt.Fprintf(w, "activated at %dms by trigger[%d] (%s)\n", *r.ActivatedAtMS, *r.TriggerIndex, r.Trigger)
	} else {
		fmt.Fprintf(w, "activated at %dms by manual trigger\n", *r.ActivatedAtMS)
	}
	fmt.Fprintf(w, "state: %s\n", r.State)
	if r.Value != `` {
		fmt.Fprintf(w, "value: %q\n", r.Value)
	}
	if r.Error != `` {
		fmt.Fprintf(w, "error: %s\n", r.Error)
	}
	for _, err := range r.SetupErrors {
		fmt.Fprintf(w, "setup error: %s\n", err)
	}
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
