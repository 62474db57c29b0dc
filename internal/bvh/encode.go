package bvh

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
)

const (
	DefaultFrameRate = 30
	DefaultScale     = 200
)

// ErrEmptyInput is returned when there are no frames to encode.
var ErrEmptyInput = errors.New("no frames")

// Encoder writes position-only BVH documents for the fixed skeleton. Zero
// fields fall back to DefaultFrameRate and DefaultScale. An Encoder holds no
// state between calls and is safe for concurrent use.
type Encoder struct {
	FrameRate float64
	Scale     float64
}

// Build encodes frames with the default frame rate and scale.
func Build(frames []Frame) ([]byte, error) {
	return Encoder{}.Encode(frames)
}

func (e Encoder) Encode(frames []Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.EncodeTo(&buf, frames); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes the document to w. Nothing is written when frames is
// empty.
func (e Encoder) EncodeTo(w io.Writer, frames []Frame) error {
	if len(frames) == 0 {
		return ErrEmptyInput
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(hierarchy)
	bw.WriteString("MOTION\n")
	fmt.Fprintf(bw, "Frames: %d\n", len(frames))
	fmt.Fprintf(bw, "Frame Time: %.8f\n", 1/e.frameRate())

	scale := e.scale()
	line := make([]byte, 0, len(Joints)*3*10)
	for i, frame := range frames {
		if i > 0 {
			bw.WriteByte('\n')
		}
		line = appendMotionLine(line[:0], frame, scale)
		bw.Write(line)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing bvh: %w", err)
	}
	return nil
}

// FrameTime is the per-frame duration written to the MOTION header.
func (e Encoder) FrameTime() float64 {
	return 1 / e.frameRate()
}

func (e Encoder) frameRate() float64 {
	if e.FrameRate > 0 {
		return e.FrameRate
	}
	return DefaultFrameRate
}

func (e Encoder) scale() float64 {
	if e.Scale > 0 {
		return e.Scale
	}
	return DefaultScale
}

func appendMotionLine(dst []byte, frame Frame, scale float64) []byte {
	for i, joint := range Joints {
		if i > 0 {
			dst = append(dst, ' ')
		}
		p := Normalize(frame.Sample(joint), scale)
		dst = appendFixed4(dst, p.X)
		dst = append(dst, ' ')
		dst = appendFixed4(dst, p.Y)
		dst = append(dst, ' ')
		dst = appendFixed4(dst, p.Z)
	}
	return dst
}

// appendFixed4 writes v with four decimals. Values exactly halfway between
// two outputs round away from zero; strconv would pick the even digit.
// Negative zero keeps its sign.
func appendFixed4(dst []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.AppendFloat(dst, v, 'f', 4, 64)
	}
	// An exact tie needs precisely five decimals ending in 5, so only those
	// values take the exact path.
	var scratch [48]byte
	five := strconv.AppendFloat(scratch[:0], v, 'f', 5, 64)
	if five[len(five)-1] != '5' {
		return strconv.AppendFloat(dst, v, 'f', 4, 64)
	}
	return append(dst, new(big.Rat).SetFloat64(v).FloatString(4)...)
}
