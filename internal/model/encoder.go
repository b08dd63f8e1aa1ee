package model

import "fmt"

// Risk class names as the label encoder was fit on them.
const (
	ClassHighRisk = "high risk"
	ClassMidRisk  = "mid risk"
	ClassLowRisk  = "low risk"
)

// RequiredClasses lists the class names every deployed label encoder
// must contain.
var RequiredClasses = []string{ClassHighRisk, ClassMidRisk, ClassLowRisk}

// LabelEncoder maps class indices to class names in fit order.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Index returns the position of a class name.
func (l *LabelEncoder) Index(name string) (int, bool) {
	for i, c := range l.Classes {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// InverseTransform returns the class name for an index.
func (l *LabelEncoder) InverseTransform(idx int) (string, error) {
	if idx < 0 || idx >= len(l.Classes) {
		return "", fmt.Errorf("class index %d out of range (%d classes)", idx, len(l.Classes))
	}
	return l.Classes[idx], nil
}

// Validate checks that every required risk class is present.
func (l *LabelEncoder) Validate() error {
	for _, name := range RequiredClasses {
		if _, ok := l.Index(name); !ok {
			return fmt.Errorf("label encoder missing expected class: %q", name)
		}
	}
	return nil
}
