package bvh

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	Hips          = "Hips"
	Spine         = "Spine"
	Chest         = "Chest"
	Neck          = "Neck"
	Head          = "Head"
	LeftShoulder  = "LeftShoulder"
	LeftElbow     = "LeftElbow"
	LeftWrist     = "LeftWrist"
	RightShoulder = "RightShoulder"
	RightElbow    = "RightElbow"
	RightWrist    = "RightWrist"
)

// Joints is the canonical serialization order. Every motion line lists the
// joints in this order.
var Joints = []string{
	Hips, Spine, Chest, Neck, Head,
	LeftShoulder, LeftElbow, LeftWrist,
	RightShoulder, RightElbow, RightWrist,
}

// Joint is one entry of the fixed skeleton table. Parent indexes into the
// same table and is -1 for the root.
type Joint struct {
	Name     string
	Parent   int
	Offset   r3.Vec
	Channels []string
}

var positionChannels = []string{"Xposition", "Yposition", "Zposition"}

// Entries must appear after their parent. Children are emitted in table order.
var skeleton = []Joint{
	positionJoint(Hips, -1, r3.Vec{}),
	positionJoint(Spine, 0, r3.Vec{Y: 10}),
	positionJoint(Chest, 1, r3.Vec{Y: 10}),
	positionJoint(Neck, 2, r3.Vec{Y: 10}),
	positionJoint(Head, 3, r3.Vec{Y: 10}),
	positionJoint(LeftShoulder, 4, r3.Vec{X: 10}),
	positionJoint(LeftElbow, 5, r3.Vec{X: 10}),
	positionJoint(LeftWrist, 6, r3.Vec{X: 10}),
	positionJoint(RightShoulder, 4, r3.Vec{X: -10}),
	positionJoint(RightElbow, 8, r3.Vec{X: -10}),
	positionJoint(RightWrist, 9, r3.Vec{X: -10}),
}

func positionJoint(name string, parent int, offset r3.Vec) Joint {
	return Joint{Name: name, Parent: parent, Offset: offset, Channels: positionChannels}
}

var hierarchy = renderHierarchy(skeleton)

// Skeleton returns a copy of the fixed joint table.
func Skeleton() []Joint {
	out := make([]Joint, len(skeleton))
	for i, joint := range skeleton {
		joint.Channels = append([]string(nil), positionChannels...)
		out[i] = joint
	}
	return out
}

// Hierarchy returns the pre-rendered HIERARCHY block, including its trailing
// newline. It is identical for every document.
func Hierarchy() string {
	return hierarchy
}

// IsJoint reports whether name is one of the skeleton joints.
func IsJoint(name string) bool {
	for _, joint := range Joints {
		if joint == name {
			return true
		}
	}
	return false
}

func renderHierarchy(joints []Joint) string {
	var b strings.Builder
	b.WriteString("HIERARCHY\n")
	for i, joint := range joints {
		if joint.Parent < 0 {
			writeJoint(&b, joints, i, 0)
		}
	}
	return b.String()
}

func writeJoint(b *strings.Builder, joints []Joint, idx, depth int) {
	indent := strings.Repeat("\t", depth)
	joint := joints[idx]

	keyword := "JOINT"
	if joint.Parent < 0 {
		keyword = "ROOT"
	}
	fmt.Fprintf(b, "%s%s %s\n", indent, keyword, joint.Name)
	fmt.Fprintf(b, "%s{\n", indent)
	fmt.Fprintf(b, "%s\tOFFSET %s\n", indent, formatOffset(joint.Offset))
	fmt.Fprintf(b, "%s\tCHANNELS %d %s\n", indent, len(joint.Channels), strings.Join(joint.Channels, " "))

	leaf := true
	for i := idx + 1; i < len(joints); i++ {
		if joints[i].Parent == idx {
			leaf = false
			writeJoint(b, joints, i, depth+1)
		}
	}
	if leaf {
		fmt.Fprintf(b, "%s\tEnd Site\n", indent)
		fmt.Fprintf(b, "%s\t{\n", indent)
		fmt.Fprintf(b, "%s\t\tOFFSET %s\n", indent, formatOffset(r3.Vec{}))
		fmt.Fprintf(b, "%s\t}\n", indent)
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

func formatOffset(v r3.Vec) string {
	return strconv.FormatFloat(v.X, 'f', -1, 64) + " " +
		strconv.FormatFloat(v.Y, 'f', -1, 64) + " " +
		strconv.FormatFloat(v.Z, 'f', -1, 64)
}
