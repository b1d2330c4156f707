package srt

import (
	"strings"
	"testing"

	"subflow/internal/timedtext"
)

const sample = `1
00:00:01,000 --> 00:00:03,500
Hello there

2
00:00:04,000 --> 00:00:06,000
Two lines
of text
`

func TestParse(t *testing.T) {
	spans, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].StartMs != 1000 || spans[0].EndMs != 3500 {
		t.Fatalf("unexpected timing: %+v", spans[0])
	}
	if spans[0].Text != "Hello there" {
		t.Fatalf("unexpected text %q", spans[0].Text)
	}
	if spans[1].Text != "Two lines\nof text" {
		t.Fatalf("multiline text lost: %q", spans[1].Text)
	}
	if spans[0].Index != 1 || spans[1].Index != 2 {
		t.Fatalf("expected renumbering, got %d and %d", spans[0].Index, spans[1].Index)
	}
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	raw := "1\nnot a timing line\ntext\n\n2\n00:00:01,000 --> 00:00:02,000\nkept\n"
	spans, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(spans) != 1 || spans[0].Text != "kept" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestParseStripsByteOrderMark(t *testing.T) {
	raw := "\uFEFF1\n00:00:01,000 --> 00:00:02,000\nmarked\n"
	spans, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(spans) != 1 || spans[0].Text != "marked" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestParseEmpty(t *testing.T) {
	spans, err := Parse([]byte("  \n "))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(spans) != 0 {
		t.Fatalf("expected no spans, got %d", len(spans))
	}
}

func TestFormatRoundTrip(t *testing.T) {
	spans := []timedtext.Span{
		{StartMs: 1000, EndMs: 3500, Text: "Hello there"},
		{StartMs: 4000, EndMs: 6000, Text: "Two lines\nof text"},
	}
	out := Format(spans)
	if !strings.Contains(string(out), "00:00:01,000 --> 00:00:03,500") {
		t.Fatalf("missing timing line in:\n%s", out)
	}
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(parsed) != len(spans) {
		t.Fatalf("round trip lost cues: %d != %d", len(parsed), len(spans))
	}
	for i := range spans {
		if parsed[i].StartMs != spans[i].StartMs || parsed[i].EndMs != spans[i].EndMs || parsed[i].Text != spans[i].Text {
			t.Fatalf("round trip mismatch at %d: %+v vs %+v", i, parsed[i], spans[i])
		}
	}
}
