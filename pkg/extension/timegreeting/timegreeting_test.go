package timegreeting

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/greeting"
	"pgregory.net/rapid"
)

func fixedClock(hour, minute int) Clock {
	return Clock{
		Now:   func() time.Time { return time.Date(2024, 8, 26, hour, minute, 0, 0, time.UTC) },
		Local: time.UTC,
	}
}

func TestClassifyHour(t *testing.T) {
	tests := []struct {
		hour int
		want Period
	}{
		{0, PeriodLateNight}, {4, PeriodLateNight}, {5, PeriodDawn}, {6, PeriodDawn},
		{7, PeriodMorning}, {11, PeriodMorning}, {12, PeriodNoon}, {13, PeriodAfternoon},
		{17, PeriodAfternoon}, {18, PeriodEvening}, {20, PeriodEvening}, {21, PeriodNight},
		{22, PeriodNight}, {23, PeriodLateNight},
	}
	for _, tt := range tests {
		if got := ClassifyHour(tt.hour); got != tt.want {
			t.Errorf("ClassifyHour(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestEveryHourHasAGreeting(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hour := rapid.IntRange(0, 23).Draw(rt, "hour")
		p := ClassifyHour(hour)
		if !slices.Contains(periods, p) {
			rt.Fatalf("hour %d classified as unknown period %q", hour, p)
		}
		lang := greeting.Language(rapid.String().Draw(rt, "lang"))
		style := Style(rapid.String().Draw(rt, "style"))
		if Greeting(p, lang, style) == "" {
			rt.Fatalf("empty greeting for %q/%q/%q", p, lang, style)
		}
	})
}

func TestGreetingFallsBackToCasualEnglish(t *testing.T) {
	if got := Greeting(PeriodNoon, "it", StyleFormal); got != "Good afternoon! Perfect time for lunch! 🌞" {
		t.Errorf("Greeting = %q", got)
	}
	if got := Greeting(PeriodEvening, greeting.LanguageGerman, StyleBrief); got != "Guten Abend! 🌅" {
		t.Errorf("Greeting = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		hour, minute int
		format       Format
		want         string
	}{
		{9, 5, Format12h, "9:05 AM"},
		{0, 15, Format12h, "12:15 AM"},
		{12, 0, Format12h, "12:00 PM"},
		{18, 30, Format12h, "6:30 PM"},
		{9, 5, Format24h, "09:05"},
		{18, 30, Format24h, "18:30"},
	}
	for _, tt := range tests {
		ts := time.Date(2024, 1, 1, tt.hour, tt.minute, 0, 0, time.UTC)
		if got := FormatTime(ts, tt.format); got != tt.want {
			t.Errorf("FormatTime(%02d:%02d, %s) = %q, want %q", tt.hour, tt.minute, tt.format, got, tt.want)
		}
	}
}

func TestClockResolve(t *testing.T) {
	c := fixedClock(9, 30)

	in := c.Resolve("Asia/Tokyo")
	if in.Label != "Asia/Tokyo" || in.Time.Hour() != 18 || in.Warning != "" {
		t.Errorf("Resolve(Asia/Tokyo) = %+v", in)
	}

	in = c.Resolve(LocalZone)
	if in.Label != "local" || in.Time.Hour() != 9 {
		t.Errorf("Resolve(local) = %+v", in)
	}

	for _, zone := range []string{"Mars/Olympus", "", "Local"} {
		in = c.Resolve(zone)
		if !in.Fallback() || in.Label != "local (fallback)" {
			t.Errorf("Resolve(%q) label = %q, want fallback", zone, in.Label)
		}
		if want := "Invalid timezone '" + zone + "', using local time"; in.Warning != want {
			t.Errorf("Warning = %q, want %q", in.Warning, want)
		}
	}
}

func TestHandle(t *testing.T) {
	e := New(WithClock(fixedClock(9, 30)))
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{
			"defaults",
			map[string]any{"id": "t1"},
			"Good morning! Hope you're having a great start to your day! ☀️ It's currently 9:30 AM.",
		},
		{
			"utc",
			map[string]any{"id": "t1", "timezone": "UTC"},
			"Good morning! Hope you're having a great start to your day! ☀️ It's currently 9:30 AM in UTC.",
		},
		{
			"tokyo formal 24h",
			map[string]any{"id": "t1", "timezone": "Asia/Tokyo", "style": "formal", "format": "24h"},
			"Good evening. I hope you are having a pleasant evening. It's currently 18:30 in Tokyo.",
		},
		{
			"new york brief",
			map[string]any{"id": "t1", "timezone": "America/New_York", "style": "brief"},
			"Early morning! ☀️ It's currently 5:30 AM in New_York.",
		},
		{
			"without time",
			map[string]any{"id": "t1", "language": "fr", "includeTime": false},
			"Bonjour! J'espère que vous passez un bon début de journée! ☀️",
		},
		{
			"clamped style and format",
			map[string]any{"id": "t1", "style": "loud", "format": "36h", "includeTime": false},
			"Good morning! Hope you're having a great start to your day! ☀️",
		},
		{
			"fallback zone",
			map[string]any{"id": "t1", "timezone": "Mars/Olympus"},
			"Good morning! Hope you're having a great start to your day! ☀️ It's currently 9:30 AM in local (fallback).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rpcErr := e.Handle(tt.params)
			if rpcErr != nil {
				t.Fatalf("Handle: %v", rpcErr)
			}
			if res.Text != tt.want {
				t.Errorf("Text = %q, want %q", res.Text, tt.want)
			}
		})
	}
}

func TestHandleErrors(t *testing.T) {
	e := New(WithClock(fixedClock(9, 30)))
	tests := []struct {
		name    string
		params  map[string]any
		code    int
		message string
	}{
		{"missing id", map[string]any{"language": "xx"}, -32602, "Invalid params: Missing required parameter: id"},
		{"language before timezone", map[string]any{"id": "t1", "language": "it", "timezone": "Mars/Olympus"}, -32003, "Unsupported language: it"},
		{"numeric language", map[string]any{"id": "t1", "language": 5}, -32003, "Unsupported language: 5"},
		{"empty language", map[string]any{"id": "t1", "language": ""}, -32003, "Unsupported language: "},
		{"null language", map[string]any{"id": "t1", "language": nil}, -32003, "Unsupported language: null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rpcErr := e.Handle(tt.params)
			if rpcErr == nil {
				t.Fatal("expected error")
			}
			if rpcErr.Code != tt.code || rpcErr.Message != tt.message {
				t.Errorf("error = %d %q, want %d %q", rpcErr.Code, rpcErr.Message, tt.code, tt.message)
			}
		})
	}
}

func TestHandleClampsWrongTypes(t *testing.T) {
	e := New(WithClock(fixedClock(9, 30)))
	tests := []struct {
		name   string
		params map[string]any
		style  Style
		time   string
	}{
		{"numeric style", map[string]any{"id": "t1", "style": 5}, StyleCasual, "9:30 AM"},
		{"unknown style", map[string]any{"id": "t1", "style": "poetic"}, StyleCasual, "9:30 AM"},
		{"numeric format", map[string]any{"id": "t1", "format": 24, "style": "brief"}, StyleBrief, "9:30 AM"},
		{"unknown format", map[string]any{"id": "t1", "format": "36h"}, StyleCasual, "9:30 AM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rpcErr := e.Handle(tt.params)
			if rpcErr != nil {
				t.Fatalf("Handle: %v", rpcErr)
			}
			if res.Context.Style != tt.style {
				t.Errorf("Style = %q, want %q", res.Context.Style, tt.style)
			}
			if res.Context.CurrentTime != tt.time {
				t.Errorf("CurrentTime = %q, want %q", res.Context.CurrentTime, tt.time)
			}
		})
	}
}

func TestHandleIncludeTimeTruthiness(t *testing.T) {
	e := New(WithClock(fixedClock(9, 30)))
	for _, v := range []any{false, nil, 0.0, ""} {
		res, rpcErr := e.Handle(map[string]any{"id": "t1", "includeTime": v})
		if rpcErr != nil {
			t.Fatalf("Handle(%v): %v", v, rpcErr)
		}
		if strings.Contains(res.Text, "It's currently") {
			t.Errorf("includeTime %#v: Text = %q, want no time", v, res.Text)
		}
	}
	res, rpcErr := e.Handle(map[string]any{"id": "t1", "includeTime": "yes"})
	if rpcErr != nil {
		t.Fatalf("Handle: %v", rpcErr)
	}
	if !strings.Contains(res.Text, "It's currently 9:30 AM") {
		t.Errorf("Text = %q, want the time", res.Text)
	}
}

func TestHandleUnusableTimezoneFallsBack(t *testing.T) {
	e := New(WithClock(fixedClock(9, 30)))
	tests := []struct {
		name    string
		zone    any
		warning string
	}{
		{"numeric", 7, "Invalid timezone '7', using local time"},
		{"empty", "", "Invalid timezone '', using local time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rpcErr := e.Handle(map[string]any{"id": "t1", "timezone": tt.zone})
			if rpcErr != nil {
				t.Fatalf("Handle: %v", rpcErr)
			}
			if res.Context.Timezone != "local (fallback)" {
				t.Errorf("Timezone = %q, want local (fallback)", res.Context.Timezone)
			}
			if res.Context.Warning != tt.warning {
				t.Errorf("Warning = %q, want %q", res.Context.Warning, tt.warning)
			}
		})
	}

	res, rpcErr := e.Handle(map[string]any{"id": "t1"})
	if rpcErr != nil {
		t.Fatalf("Handle: %v", rpcErr)
	}
	if res.Context.Timezone != LocalZone || res.Context.Warning != "" {
		t.Errorf("absent timezone = %q %q, want local without warning", res.Context.Timezone, res.Context.Warning)
	}
}

func TestHandleUnsupportedLanguageSkipsClock(t *testing.T) {
	e := New(WithClock(Clock{Now: func() time.Time { panic("clock read") }}))
	_, rpcErr := e.Handle(map[string]any{"id": "t1", "language": "it"})
	if rpcErr == nil || rpcErr.Code != -32003 {
		t.Fatalf("error = %v, want -32003", rpcErr)
	}
	if rpcErr.Message != "Unsupported language: it" {
		t.Errorf("Message = %q", rpcErr.Message)
	}
}

func TestHandleStrictTimezones(t *testing.T) {
	e := New(WithClock(fixedClock(9, 30)), WithStrictTimezones(true))
	_, rpcErr := e.Handle(map[string]any{"id": "t1", "timezone": "Mars/Olympus"})
	if rpcErr == nil || rpcErr.Code != -32001 || rpcErr.Message != "Invalid timezone: Mars/Olympus" {
		t.Fatalf("error = %v, want -32001 Invalid timezone", rpcErr)
	}
	if _, rpcErr := e.Handle(map[string]any{"id": "t1", "timezone": "Europe/Paris"}); rpcErr != nil {
		t.Errorf("valid zone rejected: %v", rpcErr)
	}
}

func TestHandleClockFailure(t *testing.T) {
	e := New(WithClock(Clock{Now: func() time.Time { panic("clock unavailable") }}))
	_, rpcErr := e.Handle(map[string]any{"id": "t1"})
	if rpcErr == nil || rpcErr.Code != -32002 || rpcErr.Message != "Time calculation failed: clock unavailable" {
		t.Fatalf("error = %v, want -32002", rpcErr)
	}
}

func TestMessageShape(t *testing.T) {
	e := New(WithClock(fixedClock(23, 45)))
	res, rpcErr := e.Handle(map[string]any{"id": "t1", "timezone": "Nowhere", "language": "ja", "format": "24h"})
	if rpcErr != nil {
		t.Fatalf("Handle: %v", rpcErr)
	}
	msg := res.Message()
	if !strings.HasPrefix(msg.MessageID, "msg-time-greeting-") || len(msg.MessageID) != len("msg-time-greeting-")+8 {
		t.Errorf("MessageID = %q", msg.MessageID)
	}
	if msg.Role != a2a.RoleAgent || msg.Kind != a2a.KindMessage {
		t.Errorf("Role/Kind = %q/%q", msg.Role, msg.Kind)
	}
	tc := msg.Metadata["timeContext"].(map[string]any)
	want := map[string]any{
		"currentTime": "23:45",
		"timezone":    "local (fallback)",
		"timePeriod":  "late_night",
		"hour":        23,
		"style":       "casual",
		"language":    "ja",
		"warning":     "Invalid timezone 'Nowhere', using local time",
	}
	for k, v := range want {
		if tc[k] != v {
			t.Errorf("timeContext[%s] = %v, want %v", k, tc[k], v)
		}
	}
	if !strings.HasPrefix(msg.Text(), "こんばんは！かなり遅くまで起きていますね！🌛") {
		t.Errorf("Text = %q", msg.Text())
	}
}

func TestInvoke(t *testing.T) {
	e := New(WithClock(fixedClock(12, 0)))
	out, rpcErr := e.Invoke(context.Background(), Method, json.RawMessage(`{"id":"t1","style":"brief","includeTime":false}`))
	if rpcErr != nil {
		t.Fatalf("Invoke: %v", rpcErr)
	}
	if got := out.(*a2a.Message).Text(); got != "Good afternoon! 🌞" {
		t.Errorf("Text = %q", got)
	}
	if _, rpcErr := e.Invoke(context.Background(), "greeting/other", nil); rpcErr == nil {
		t.Error("expected unknown method error")
	}
}

func TestMetadata(t *testing.T) {
	md := New().Metadata()
	if md["uri"] != URI || md["type"] != "method" || md["name"] != "Time-Based Greeting Extension" {
		t.Errorf("metadata = %v", md)
	}
	if got := md["methods"].([]string); !slices.Equal(got, []string{Method}) {
		t.Errorf("methods = %v", got)
	}
	if got := md["supportedTimezones"].([]string); len(got) != 17 || !slices.Contains(got, "Pacific/Auckland") {
		t.Errorf("supportedTimezones = %v", got)
	}
	if got := md["timePeriods"].([]string); !slices.Equal(got, []string{"dawn", "morning", "noon", "afternoon", "evening", "night", "late_night"}) {
		t.Errorf("timePeriods = %v", got)
	}
	if got := md["supportedStyles"].([]string); !slices.Equal(got, []string{"casual", "formal", "brief"}) {
		t.Errorf("supportedStyles = %v", got)
	}
}

func TestResolveFromText(t *testing.T) {
	got := Resolve(nil, false, "Formal time greeting in Tokyo, in Japanese, 24 hour clock", "task-1")
	want := map[string]any{"id": "task-1", "timezone": "Asia/Tokyo", "style": "formal", "language": "ja", "format": "24h"}
	if len(got) != len(want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}

	got = Resolve(nil, false, "good morning from new york, brief, without time", "task-2")
	if got["timezone"] != "America/New_York" || got["style"] != "brief" || got["includeTime"] != false {
		t.Errorf("Resolve = %v", got)
	}

	got = Resolve(nil, false, "time greeting", "task-3")
	if got["style"] != "casual" || got["timezone"] != nil || got["language"] != nil {
		t.Errorf("Resolve = %v", got)
	}
}

func TestResolveStructuredWins(t *testing.T) {
	got := Resolve(map[string]any{"timezone": "Europe/Berlin"}, true, "formal greeting in tokyo", "task-1")
	if len(got) != 2 || got["id"] != "task-1" || got["timezone"] != "Europe/Berlin" {
		t.Errorf("Resolve = %v", got)
	}
}

func TestSchemaAcceptsExamples(t *testing.T) {
	doc := New().Documentation()
	resolved, err := doc.Schema.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, ex := range doc.Schema.Examples {
		if err := resolved.Validate(ex); err != nil {
			t.Errorf("Validate(%v): %v", ex, err)
		}
	}
	if err := resolved.Validate(map[string]any{"timezone": "UTC"}); err == nil {
		t.Error("expected missing id to be rejected")
	}
	if err := resolved.Validate(map[string]any{"id": "x", "format": "36h"}); err == nil {
		t.Error("expected unknown format to be rejected")
	}
}
