package attr

import "fmt"

// Kind is the tag of an attribute variant.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindRange
	KindSeed
	KindShape
	KindVecFloat
	KindVecInt
	KindWaveNumber
	KindMapEnum
	KindColor
	KindFilename
	KindMatrix
	KindCloud
	KindPath
	KindString
	KindChoice
	KindColorGradient
)

var kindNames = map[Kind]string{
	KindBool:          "Bool",
	KindInt:           "Int",
	KindFloat:         "Float",
	KindRange:         "Range",
	KindSeed:          "Seed",
	KindShape:         "Shape",
	KindVecFloat:      "VecFloat",
	KindVecInt:        "VecInt",
	KindWaveNumber:    "WaveNumber",
	KindMapEnum:       "MapEnum",
	KindColor:         "Color",
	KindFilename:      "Filename",
	KindMatrix:        "Matrix",
	KindCloud:         "Cloud",
	KindPath:          "Path",
	KindString:        "String",
	KindChoice:        "Choice",
	KindColorGradient: "ColorGradient",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind with the given name.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown attribute kind %q", s)
}
