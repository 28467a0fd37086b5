package query

// NewCondition returns a condition with a fresh ID and no logical operator.
func NewCondition(property string, op Operator, val string) FilterCondition {
	return FilterCondition{ID: NewID(), Property: property, Operator: op, Value: val}
}

// AddFilter appends c to the chain. A missing ID is generated, and any
// condition after the first defaults to AND.
func AddFilter(filters []FilterCondition, c FilterCondition) []FilterCondition {
	if c.ID == "" {
		c.ID = NewID()
	}
	out := make([]FilterCondition, 0, len(filters)+1)
	out = append(out, filters...)
	out = append(out, c)
	return Restitch(out)
}

// RemoveFilter drops the condition with id and restitches the chain.
func RemoveFilter(filters []FilterCondition, id string) []FilterCondition {
	out := make([]FilterCondition, 0, len(filters))
	for _, f := range filters {
		if f.ID != id {
			out = append(out, f)
		}
	}
	return Restitch(out)
}

// UpdateFilter replaces the condition with the same ID as c.
func UpdateFilter(filters []FilterCondition, c FilterCondition) []FilterCondition {
	out := make([]FilterCondition, len(filters))
	copy(out, filters)
	for i := range out {
		if out[i].ID == c.ID {
			out[i] = c
		}
	}
	return Restitch(out)
}

// Restitch returns a copy of filters in which only position 0 lacks a
// logical operator.
func Restitch(filters []FilterCondition) []FilterCondition {
	out := make([]FilterCondition, len(filters))
	copy(out, filters)
	for i := range out {
		switch {
		case i == 0:
			out[i].LogicalOperator = ""
		case out[i].LogicalOperator != Or:
			out[i].LogicalOperator = And
		}
	}
	return out
}
