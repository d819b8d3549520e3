/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package picker

import "time"

// Label is a text region on the client.
type Label string

const (
	LabelInstructions Label = "instructions"
	LabelResult       Label = "result"
)

// Region is a toggleable UI block on the client.
type Region string

const (
	RegionWelcome      Region = "welcome"
	RegionInstructions Region = "instructions"
)

// Surface is a 2D drawing target sized to its container.
type Surface interface {
	Resize(width, height float64)
	Clear()
	FillDisc(x, y, r float64, color string)
	StrokeCircle(x, y, r, width float64, color string)
}

// Display covers the non-canvas parts of the UI.
type Display interface {
	SetText(label Label, text string)
	SetVisible(region Region, visible bool)
	ShowPlayers(colors []Color)
}

// Feedback covers vibration and the countdown track.
type Feedback interface {
	Vibrate(d time.Duration)
	PlayAudio(rate float64)
	PauseAudio()
}

// Output is everything a session writes to.
type Output interface {
	Surface
	Display
	Feedback
}

// Op is one serialized output operation.
type Op struct {
	Op      string  `json:"op"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	R       float64 `json:"r,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Color   string  `json:"color,omitempty"`
	Target  string  `json:"target,omitempty"`
	Text    *string `json:"text,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
	Ms      int64   `json:"ms,omitempty"`
	Action  string  `json:"action,omitempty"`
	Rate    float64 `json:"rate,omitempty"`
	Colors  []Color `json:"colors,omitempty"`
}

// Batch records operations in order. The zero value is ready to use.
type Batch struct {
	width  float64
	height float64
	ops    []Op
}

func (b *Batch) Resize(width, height float64) {
	b.width, b.height = width, height
	b.ops = append(b.ops, Op{Op: "resize", Width: width, Height: height})
}

func (b *Batch) Clear() {
	b.ops = append(b.ops, Op{Op: "clear", Width: b.width, Height: b.height})
}

func (b *Batch) FillDisc(x, y, r float64, color string) {
	b.ops = append(b.ops, Op{Op: "disc", X: x, Y: y, R: max(r, 0), Color: color})
}

func (b *Batch) StrokeCircle(x, y, r, width float64, color string) {
	b.ops = append(b.ops, Op{Op: "ring", X: x, Y: y, R: max(r, 0), Width: width, Color: color})
}

func (b *Batch) SetText(label Label, text string) {
	b.ops = append(b.ops, Op{Op: "text", Target: string(label), Text: &text})
}

func (b *Batch) SetVisible(region Region, visible bool) {
	b.ops = append(b.ops, Op{Op: "show", Target: string(region), Visible: &visible})
}

func (b *Batch) ShowPlayers(colors []Color) {
	b.ops = append(b.ops, Op{Op: "players", Colors: colors})
}

func (b *Batch) Vibrate(d time.Duration) {
	b.ops = append(b.ops, Op{Op: "vibrate", Ms: d.Milliseconds()})
}

func (b *Batch) PlayAudio(rate float64) {
	b.ops = append(b.ops, Op{Op: "audio", Action: "play", Rate: rate})
}

func (b *Batch) PauseAudio() {
	b.ops = append(b.ops, Op{Op: "audio", Action: "pause"})
}

// Len reports the number of buffered operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Flush returns the buffered operations and empties the batch.
func (b *Batch) Flush() []Op {
	ops := b.ops
	b.ops = nil
	return ops
}
