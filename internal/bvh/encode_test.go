package bvh

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

const referenceHierarchy = "HIERARCHY\nROOT Hips\n{\n\tOFFSET 0 0 0\n\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\tJOINT Spine\n\t{\n\t\tOFFSET 0 10 0\n\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\tJOINT Chest\n\t\t{\n\t\t\tOFFSET 0 10 0\n\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\tJOINT Neck\n\t\t\t{\n\t\t\t\tOFFSET 0 10 0\n\t\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\t\tJOINT Head\n\t\t\t\t{\n\t\t\t\t\tOFFSET 0 10 0\n\t\t\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\t\t\tJOINT LeftShoulder\n\t\t\t\t\t{\n\t\t\t\t\t\tOFFSET 10 0 0\n\t\t\t\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\t\t\t\tJOINT LeftElbow\n\t\t\t\t\t\t{\n\t\t\t\t\t\t\tOFFSET 10 0 0\n\t\t\t\t\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\t\t\t\t\tJOINT LeftWrist\n\t\t\t\t\t\t\t{\n\t\t\t\t\t\t\t\tOFFSET 10 0 0\n\t\t\t\t\t\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\t\t\t\t\t\tEnd Site\n\t\t\t\t\t\t\t\t{\n\t\t\t\t\t\t\t\t\tOFFSET 0 0 0\n\t\t\t\t\t\t\t\t}\n\t\t\t\t\t\t\t}\n\t\t\t\t\t\t}\n\t\t\t\t\t}\n" +
	"\t\t\t\t\tJOINT RightShoulder\n\t\t\t\t\t{\n\t\t\t\t\t\tOFFSET -10 0 0\n\t\t\t\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\t\t\t\tJOINT RightElbow\n\t\t\t\t\t\t{\n\t\t\t\t\t\t\tOFFSET -10 0 0\n\t\t\t\t\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\t\t\t\t\tJOINT RightWrist\n\t\t\t\t\t\t\t{\n\t\t\t\t\t\t\t\tOFFSET -10 0 0\n\t\t\t\t\t\t\t\tCHANNELS 3 Xposition Yposition Zposition\n" +
	"\t\t\t\t\t\t\t\tEnd Site\n\t\t\t\t\t\t\t\t{\n\t\t\t\t\t\t\t\t\tOFFSET 0 0 0\n\t\t\t\t\t\t\t\t}\n\t\t\t\t\t\t\t}\n\t\t\t\t\t\t}\n\t\t\t\t\t}\n" +
	"\t\t\t\t}\n\t\t\t}\n\t\t}\n\t}\n}\n"

func TestHierarchy(t *testing.T) {
	if got := Hierarchy(); got != referenceHierarchy {
		t.Fatalf("hierarchy mismatch\n got: %q\nwant: %q", got, referenceHierarchy)
	}
}

func TestBuild(t *testing.T) {
	t.Run("single default frame", func(t *testing.T) {
		doc, err := Build([]Frame{{Hips: {X: 0.5, Y: 0.5, Z: 0}}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		header, body := splitMotion(t, doc)
		if header[0] != "Frames: 1" {
			t.Fatalf("expected frame count line, got %q", header[0])
		}
		if header[1] != "Frame Time: 0.03333333" {
			t.Fatalf("expected frame time line, got %q", header[1])
		}
		if len(body) != 1 {
			t.Fatalf("expected 1 motion line, got %d", len(body))
		}
		tokens := strings.Fields(body[0])
		if len(tokens) != 33 {
			t.Fatalf("expected 33 tokens, got %d", len(tokens))
		}
		for i := 0; i < len(tokens); i += 3 {
			triple := strings.Join(tokens[i:i+3], " ")
			if triple != "0.0000 0.0000 -0.0000" {
				t.Fatalf("joint %s: expected default triple, got %q", Joints[i/3], triple)
			}
		}
	})

	t.Run("frame count and line shape", func(t *testing.T) {
		frames := make([]Frame, 17)
		for i := range frames {
			frames[i] = Frame{
				LeftWrist:  {X: float64(i) / 17, Y: 0.25, Z: -0.1},
				RightElbow: {X: 0.9, Y: float64(i) / 34, Z: 0.3},
			}
		}
		doc, err := Build(frames)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		header, body := splitMotion(t, doc)
		if header[0] != fmt.Sprintf("Frames: %d", len(frames)) {
			t.Fatalf("unexpected frame count line %q", header[0])
		}
		if len(body) != len(frames) {
			t.Fatalf("expected %d motion lines, got %d", len(frames), len(body))
		}
		for i, line := range body {
			if n := len(strings.Fields(line)); n != 33 {
				t.Fatalf("line %d: expected 33 tokens, got %d", i, n)
			}
		}
	})

	t.Run("joint order and transform", func(t *testing.T) {
		doc, err := Build([]Frame{{
			Hips:       {X: 1, Y: 0, Z: 1},
			RightWrist: {X: 0, Y: 1, Z: -0.5},
		}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, body := splitMotion(t, doc)
		tokens := strings.Fields(body[0])
		if got := strings.Join(tokens[0:3], " "); got != "100.0000 100.0000 -200.0000" {
			t.Fatalf("unexpected hips triple %q", got)
		}
		if got := strings.Join(tokens[30:33], " "); got != "-100.0000 -100.0000 100.0000" {
			t.Fatalf("unexpected right wrist triple %q", got)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		frames := []Frame{
			{Head: {X: 0.123456, Y: 0.654321, Z: 0.01}},
			{Neck: {X: 0.3, Y: 0.4, Z: -0.02}, "Tail": {X: 9, Y: 9, Z: 9}},
		}
		first, err := Build(frames)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		second, err := Build(frames)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("expected identical output")
		}
	})

	t.Run("no trailing newline", func(t *testing.T) {
		doc, err := Build([]Frame{{}, {}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if bytes.HasSuffix(doc, []byte("\n")) {
			t.Fatalf("expected document to end without newline")
		}
		if !bytes.HasPrefix(doc, []byte(referenceHierarchy+"MOTION\n")) {
			t.Fatalf("expected hierarchy followed by MOTION")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		for name, frames := range map[string][]Frame{"nil": nil, "empty": {}} {
			doc, err := Build(frames)
			if !errors.Is(err, ErrEmptyInput) {
				t.Fatalf("%s: expected ErrEmptyInput, got %v", name, err)
			}
			if doc != nil {
				t.Fatalf("%s: expected no document", name)
			}
		}
	})
}

func TestEncoder(t *testing.T) {
	t.Run("custom frame rate and scale", func(t *testing.T) {
		doc, err := Encoder{FrameRate: 60, Scale: 100}.Encode([]Frame{{Hips: {X: 1, Y: 0, Z: 1}}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		header, body := splitMotion(t, doc)
		if header[1] != "Frame Time: 0.01666667" {
			t.Fatalf("unexpected frame time line %q", header[1])
		}
		if got := strings.Join(strings.Fields(body[0])[0:3], " "); got != "50.0000 50.0000 -100.0000" {
			t.Fatalf("unexpected hips triple %q", got)
		}
	})

	t.Run("zero value uses defaults", func(t *testing.T) {
		var enc Encoder
		if enc.FrameTime() != 1.0/DefaultFrameRate {
			t.Fatalf("expected default frame time, got %v", enc.FrameTime())
		}
	})

	t.Run("EncodeTo writes nothing on empty input", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (Encoder{}).EncodeTo(&buf, nil); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput, got %v", err)
		}
		if buf.Len() != 0 {
			t.Fatalf("expected empty buffer, got %d bytes", buf.Len())
		}
	})
}

func TestBuild_HalfwayRounding(t *testing.T) {
	doc, err := Build([]Frame{
		{Hips: {X: 0.5, Y: 0.5, Z: -0.00015625}, Head: {X: 0.50078125, Y: 0.5, Z: 0}},
		{Hips: {X: 0.5, Y: 0.5, Z: 0.00015625}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	_, body := splitMotion(t, doc)

	first := strings.Fields(body[0])
	if got := strings.Join(first[0:3], " "); got != "0.0000 0.0000 0.0313" {
		t.Fatalf("unexpected hips triple %q", got)
	}
	if got := strings.Join(first[12:15], " "); got != "0.1563 0.0000 -0.0000" {
		t.Fatalf("unexpected head triple %q", got)
	}

	second := strings.Fields(body[1])
	if got := second[2]; got != "-0.0313" {
		t.Fatalf("expected negative halfway value rounded away from zero, got %q", got)
	}
}

func TestAppendFixed4(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0.0000"},
		{in: math.Copysign(0, -1), want: "-0.0000"},
		{in: -0.00001, want: "-0.0000"},
		{in: 0.03125, want: "0.0313"},
		{in: -0.03125, want: "-0.0313"},
		{in: 0.15625, want: "0.1563"},
		{in: 2.5, want: "2.5000"},
		{in: 0.00005, want: "0.0001"},
		{in: 0.12344, want: "0.1234"},
		{in: 0.12346, want: "0.1235"},
		{in: -100, want: "-100.0000"},
	}
	for _, tt := range tests {
		if got := string(appendFixed4(nil, tt.in)); got != tt.want {
			t.Fatalf("appendFixed4(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func splitMotion(t *testing.T, doc []byte) ([]string, []string) {
	t.Helper()
	text := string(doc)
	idx := strings.Index(text, "MOTION\n")
	if idx == -1 {
		t.Fatalf("missing MOTION block")
	}
	lines := strings.Split(text[idx+len("MOTION\n"):], "\n")
	if len(lines) < 3 {
		t.Fatalf("expected header and body, got %d lines", len(lines))
	}
	return lines[:2], lines[2:]
}
