package enrollment

import (
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/course"
)

// Visibility is what a user may see of a section.
type Visibility string

const (
	// Locked sections only expose their outline.
	Locked   Visibility = "locked"
	Free     Visibility = "free"
	Enrolled Visibility = "enrolled"
)

var ErrSectionLocked = errors.New("section is locked")

// Evaluate decides the visibility of a published section of a published course.
func Evaluate(purchased bool, s course.Section) Visibility {
	switch {
	case purchased:
		return Enrolled
	case s.IsFree:
		return Free
	default:
		return Locked
	}
}

func (v Visibility) IsLocked() bool { return v == Locked }
