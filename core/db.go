package core

import "context"

// Transactor runs fn inside a single database transaction.
// The transaction travels in the context passed to fn: repositories called with that
// context join it. It is committed when fn returns nil and rolled back otherwise (panics included).
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// CleanOrderings keeps the orderings whose field is in allowed.
// When nothing is left, def is returned.
func CleanOrderings(ords []DBOrdering, allowed []string, def ...DBOrdering) []DBOrdering {
	cleaned := make([]DBOrdering, 0, len(ords))
	for _, ord := range ords {
		for _, fld := range allowed {
			if ord.Field == fld {
				cleaned = append(cleaned, ord)
				break
			}
		}
	}
	if len(cleaned) == 0 {
		return def
	}
	return cleaned
}
