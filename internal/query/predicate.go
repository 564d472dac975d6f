package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Field is a logical attribute a filter can constrain. Fields are mapped to
// physical columns by the store that applies the predicate.
type Field string

const (
	FieldName         Field = "name"
	FieldManufacturer Field = "manufacturer"
	FieldPrice        Field = "price"
	FieldQuantity     Field = "quantity"
	FieldAction       Field = "action"
)

type Op int

const (
	OpContains Op = iota
	OpEq
	OpGte
	OpLte
	OpGt
)

type Condition struct {
	Field Field
	Op    Op
	Value any
}

// Predicate is a conjunction of conditions. The zero value matches everything.
type Predicate struct {
	Conditions []Condition
}

func (p Predicate) Empty() bool { return len(p.Conditions) == 0 }

func (p Predicate) With(c Condition) Predicate {
	out := make([]Condition, 0, len(p.Conditions)+1)
	out = append(out, p.Conditions...)
	return Predicate{Conditions: append(out, c)}
}

// Columns maps logical fields to trusted column names.
type Columns map[Field]string

// Scope renders the predicate as parameterized WHERE clauses. A field with no
// column mapping is reported as an error on the statement instead of skipped.
func (p Predicate) Scope(cols Columns) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range p.Conditions {
			col, ok := cols[c.Field]
			if !ok {
				_ = db.AddError(fmt.Errorf("query: no column mapped for field %q", c.Field))
				return db
			}
			switch c.Op {
			case OpContains:
				db = db.Where("LOWER("+col+") LIKE ? ESCAPE '!'", "%"+EscapeLike(strings.ToLower(fmt.Sprint(c.Value)))+"%")
			case OpEq:
				db = db.Where(col+" = ?", c.Value)
			case OpGte:
				db = db.Where(col+" >= ?", c.Value)
			case OpLte:
				db = db.Where(col+" <= ?", c.Value)
			case OpGt:
				db = db.Where(col+" > ?", c.Value)
			default:
				_ = db.AddError(fmt.Errorf("query: unsupported operator %d", c.Op))
				return db
			}
		}
		return db
	}
}

// Row is the in-memory view of a record the predicate can be evaluated against.
type Row struct {
	Name         string
	Manufacturer string
	Price        int
	Quantity     int
	Action       string
}

func (r Row) text(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldManufacturer:
		return r.Manufacturer
	case FieldAction:
		return r.Action
	}
	return ""
}

func (r Row) number(f Field) (int, bool) {
	switch f {
	case FieldPrice:
		return r.Price, true
	case FieldQuantity:
		return r.Quantity, true
	}
	return 0, false
}

// Match evaluates the predicate with the same semantics Scope gives in SQL:
// case-insensitive substring for text, inclusive bounds for numbers.
func (p Predicate) Match(r Row) bool {
	for _, c := range p.Conditions {
		if !matchOne(c, r) {
			return false
		}
	}
	return true
}

func matchOne(c Condition, r Row) bool {
	if n, ok := r.number(c.Field); ok {
		v, ok := toInt(c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEq:
			return n == v
		case OpGte:
			return n >= v
		case OpLte:
			return n <= v
		case OpGt:
			return n > v
		}
		return false
	}

	s := r.text(c.Field)
	v := fmt.Sprint(c.Value)
	switch c.Op {
	case OpContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(v))
	case OpEq:
		return s == v
	}
	return false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	}
	return 0, false
}

// EscapeLike escapes LIKE metacharacters using '!' as the escape character,
// which behaves the same on sqlite, postgres and mysql.
func EscapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
