package course

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Op is a query operator. Values match the MongoDB operator names so a
// filter renders to BSON without translation.
type Op string

const (
	OpEq    Op = "$eq"
	OpNe    Op = "$ne"
	OpGt    Op = "$gt"
	OpGte   Op = "$gte"
	OpLt    Op = "$lt"
	OpLte   Op = "$lte"
	OpIn    Op = "$in"
	OpNin   Op = "$nin"
	OpRegex Op = "$regex"
	OpAnd   Op = "$and"
	OpOr    Op = "$or"
)

var knownFields = map[string]bool{
	FieldID:          true,
	FieldName:        true,
	FieldAuthor:      true,
	FieldTags:        true,
	FieldDate:        true,
	FieldIsPublished: true,
}

var textFields = map[string]bool{
	FieldName:   true,
	FieldAuthor: true,
	FieldTags:   true,
}

// Filter is a predicate over course fields. Leaf filters carry Field and a
// Value (or Values for In/Nin); And/Or carry child Filters.
type Filter struct {
	Op      Op
	Field   string
	Value   interface{}
	Values  []interface{}
	Filters []Filter
}

func Eq(field string, v interface{}) Filter  { return Filter{Op: OpEq, Field: field, Value: v} }
func Ne(field string, v interface{}) Filter  { return Filter{Op: OpNe, Field: field, Value: v} }
func Gt(field string, v interface{}) Filter  { return Filter{Op: OpGt, Field: field, Value: v} }
func Gte(field string, v interface{}) Filter { return Filter{Op: OpGte, Field: field, Value: v} }
func Lt(field string, v interface{}) Filter  { return Filter{Op: OpLt, Field: field, Value: v} }
func Lte(field string, v interface{}) Filter { return Filter{Op: OpLte, Field: field, Value: v} }

func In(field string, vs ...interface{}) Filter  { return Filter{Op: OpIn, Field: field, Values: vs} }
func Nin(field string, vs ...interface{}) Filter { return Filter{Op: OpNin, Field: field, Values: vs} }

// Regex matches text fields against pattern. Options follow MongoDB ("i", "m", "s").
func Regex(field, pattern, options string) Filter {
	return Filter{Op: OpRegex, Field: field, Value: primitive.Regex{Pattern: pattern, Options: options}}
}

func And(fs ...Filter) Filter { return Filter{Op: OpAnd, Filters: fs} }
func Or(fs ...Filter) Filter  { return Filter{Op: OpOr, Filters: fs} }

// BSON renders the filter as a MongoDB query document. Equality uses the
// short {field: value} form.
func (f Filter) BSON() bson.D {
	switch f.Op {
	case OpAnd, OpOr:
		arr := make(bson.A, 0, len(f.Filters))
		for _, child := range f.Filters {
			arr = append(arr, child.BSON())
		}
		return bson.D{{Key: string(f.Op), Value: arr}}
	case OpEq, OpRegex:
		return bson.D{{Key: f.Field, Value: f.Value}}
	case OpIn, OpNin:
		return bson.D{{Key: f.Field, Value: bson.D{{Key: string(f.Op), Value: bson.A(f.Values)}}}}
	default:
		return bson.D{{Key: f.Field, Value: bson.D{{Key: string(f.Op), Value: f.Value}}}}
	}
}

// Validate checks fields, operators and values without evaluating anything.
func (f Filter) Validate() error {
	_, err := f.compile()
	return err
}

// Matches reports whether c satisfies the filter. An invalid filter matches nothing.
func (f Filter) Matches(c *Course) bool {
	m, err := f.compile()
	if err != nil {
		return false
	}
	return m(c)
}

type matcher func(c *Course) bool

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilter, fmt.Sprintf(format, args...))
}

func (f Filter) compile() (matcher, error) {
	switch f.Op {
	case OpAnd, OpOr:
		if len(f.Filters) == 0 {
			return nil, invalid("%s needs at least one filter", f.Op)
		}
		children := make([]matcher, 0, len(f.Filters))
		for _, child := range f.Filters {
			m, err := child.compile()
			if err != nil {
				return nil, err
			}
			children = append(children, m)
		}
		if f.Op == OpAnd {
			return func(c *Course) bool {
				for _, m := range children {
					if !m(c) {
						return false
					}
				}
				return true
			}, nil
		}
		return func(c *Course) bool {
			for _, m := range children {
				if m(c) {
					return true
				}
			}
			return false
		}, nil
	}

	if !knownFields[f.Field] {
		return nil, invalid("unknown field %q", f.Field)
	}
	field := f.Field

	switch f.Op {
	case OpEq, OpNe:
		if err := checkValue(f.Value); err != nil {
			return nil, err
		}
		want := f.Value
		eq := func(c *Course) bool { return anyValue(c, field, func(v interface{}) bool { return equal(v, want) }) }
		if f.Op == OpEq {
			return eq, nil
		}
		return func(c *Course) bool { return !eq(c) }, nil
	case OpGt, OpGte, OpLt, OpLte:
		if err := checkValue(f.Value); err != nil {
			return nil, err
		}
		want, op := f.Value, f.Op
		return func(c *Course) bool {
			return anyValue(c, field, func(v interface{}) bool {
				n, ok := compare(v, want)
				if !ok {
					return false
				}
				switch op {
				case OpGt:
					return n > 0
				case OpGte:
					return n >= 0
				case OpLt:
					return n < 0
				default:
					return n <= 0
				}
			})
		}, nil
	case OpIn, OpNin:
		if len(f.Values) == 0 {
			return nil, invalid("%s on %q needs at least one value", f.Op, field)
		}
		for _, v := range f.Values {
			if err := checkValue(v); err != nil {
				return nil, err
			}
		}
		set := f.Values
		in := func(c *Course) bool {
			return anyValue(c, field, func(v interface{}) bool {
				for _, w := range set {
					if equal(v, w) {
						return true
					}
				}
				return false
			})
		}
		if f.Op == OpIn {
			return in, nil
		}
		return func(c *Course) bool { return !in(c) }, nil
	case OpRegex:
		if !textFields[field] {
			return nil, invalid("regex is not supported on %q", field)
		}
		rx, ok := f.Value.(primitive.Regex)
		if !ok {
			return nil, invalid("regex value must be a pattern")
		}
		re, err := compileRegex(rx)
		if err != nil {
			return nil, err
		}
		return func(c *Course) bool {
			return anyValue(c, field, func(v interface{}) bool {
				s, ok := v.(string)
				return ok && re.MatchString(s)
			})
		}, nil
	}
	return nil, invalid("unknown operator %q", f.Op)
}

func compileRegex(rx primitive.Regex) (*regexp.Regexp, error) {
	var flags string
	for _, o := range rx.Options {
		switch o {
		case 'i', 'm', 's':
			if !strings.ContainsRune(flags, o) {
				flags += string(o)
			}
		default:
			return nil, invalid("unsupported regex option %q", o)
		}
	}
	pattern := rx.Pattern
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalid("bad regex %q: %v", rx.Pattern, err)
	}
	return re, nil
}

func checkValue(v interface{}) error {
	switch v.(type) {
	case string, bool, time.Time, primitive.ObjectID:
		return nil
	}
	return invalid("unsupported value type %T", v)
}

// fieldValues returns the stored values of field. Array fields yield every
// element; a missing field yields nothing.
func fieldValues(c *Course, field string) []interface{} {
	switch field {
	case FieldID:
		if c.ID.IsZero() {
			return nil
		}
		return []interface{}{c.ID}
	case FieldName:
		if c.Name == "" {
			return nil
		}
		return []interface{}{c.Name}
	case FieldAuthor:
		if c.Author == "" {
			return nil
		}
		return []interface{}{c.Author}
	case FieldTags:
		out := make([]interface{}, 0, len(c.Tags))
		for _, t := range c.Tags {
			out = append(out, t)
		}
		return out
	case FieldDate:
		if c.Date == nil {
			return nil
		}
		return []interface{}{*c.Date}
	case FieldIsPublished:
		if c.IsPublished == nil {
			return nil
		}
		return []interface{}{*c.IsPublished}
	}
	return nil
}

func anyValue(c *Course, field string, pred func(v interface{}) bool) bool {
	for _, v := range fieldValues(c, field) {
		if pred(v) {
			return true
		}
	}
	return false
}

func equal(a, b interface{}) bool {
	n, ok := compare(a, b)
	return ok && n == 0
}

// compare orders two values of the same kind. Values of different kinds are
// not comparable, mirroring MongoDB's type bracketing for query operators.
func compare(a, b interface{}) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		default:
			return 0, true
		}
	case primitive.ObjectID:
		bv, ok := b.(primitive.ObjectID)
		if !ok {
			return 0, false
		}
		return bytes.Compare(av[:], bv[:]), true
	}
	return 0, false
}

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

func Asc(field string) SortField  { return SortField{Field: field} }
func Desc(field string) SortField { return SortField{Field: field, Desc: true} }

// ParseSort reads a comma separated list such as "name,-date".
func ParseSort(s string) ([]SortField, error) {
	var out []SortField
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sf := SortField{Field: part}
		if strings.HasPrefix(part, "-") {
			sf = SortField{Field: part[1:], Desc: true}
		} else if strings.HasPrefix(part, "+") {
			sf.Field = part[1:]
		}
		if !knownFields[sf.Field] {
			return nil, invalid("unknown sort field %q", sf.Field)
		}
		out = append(out, sf)
	}
	return out, nil
}

// Query describes a list request: nil Filter matches everything, Limit 0 is
// unlimited and an empty Fields returns whole records.
type Query struct {
	Filter *Filter
	Sort   []SortField
	Limit  int64
	Skip   int64
	Fields []string
}

func (q Query) Validate() error {
	if q.Filter != nil {
		if err := q.Filter.Validate(); err != nil {
			return err
		}
	}
	for _, s := range q.Sort {
		if !knownFields[s.Field] {
			return invalid("unknown sort field %q", s.Field)
		}
	}
	for _, f := range q.Fields {
		if !knownFields[f] {
			return invalid("unknown projection field %q", f)
		}
	}
	if q.Limit < 0 || q.Skip < 0 {
		return invalid("limit and skip must not be negative")
	}
	return nil
}

// FilterBSON returns the query document, empty when no filter is set.
func (q Query) FilterBSON() bson.D {
	if q.Filter == nil {
		return bson.D{}
	}
	return q.Filter.BSON()
}

// SortBSON returns nil when no ordering was requested.
func (q Query) SortBSON() bson.D {
	if len(q.Sort) == 0 {
		return nil
	}
	out := make(bson.D, 0, len(q.Sort))
	for _, s := range q.Sort {
		dir := 1
		if s.Desc {
			dir = -1
		}
		out = append(out, bson.E{Key: s.Field, Value: dir})
	}
	return out
}

// ProjectionBSON returns nil when every field is wanted. _id is always
// returned so it is never listed.
func (q Query) ProjectionBSON() bson.D {
	if len(q.Fields) == 0 {
		return nil
	}
	out := make(bson.D, 0, len(q.Fields))
	for _, f := range q.Fields {
		if f == FieldID {
			continue
		}
		out = append(out, bson.E{Key: f, Value: 1})
	}
	if len(out) == 0 {
		return bson.D{{Key: FieldID, Value: 1}}
	}
	return out
}

// Apply evaluates the query against in-memory records: filter, sort, skip,
// limit, then projection. Records are cloned, never shared.
func (q Query) Apply(all []*Course) ([]*Course, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var match matcher = func(*Course) bool { return true }
	if q.Filter != nil {
		m, err := q.Filter.compile()
		if err != nil {
			return nil, err
		}
		match = m
	}
	out := make([]*Course, 0, len(all))
	for _, c := range all {
		if match(c) {
			out = append(out, c)
		}
	}
	if len(q.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool { return lessBy(out[i], out[j], q.Sort) })
	}
	if q.Skip > 0 {
		if q.Skip >= int64(len(out)) {
			out = out[:0]
		} else {
			out = out[q.Skip:]
		}
	}
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	res := make([]*Course, 0, len(out))
	for _, c := range out {
		res = append(res, Project(c, q.Fields))
	}
	return res, nil
}

func lessBy(a, b *Course, fields []SortField) bool {
	for _, s := range fields {
		ka, okA := sortKey(a, s)
		kb, okB := sortKey(b, s)
		var n int
		switch {
		case !okA && !okB:
			n = 0
		case !okA:
			n = -1
		case !okB:
			n = 1
		default:
			n, _ = compare(ka, kb)
		}
		if s.Desc {
			n = -n
		}
		if n != 0 {
			return n < 0
		}
	}
	return false
}

// sortKey picks the value a record sorts by. Arrays sort by their smallest
// element ascending and their largest descending; a missing field sorts first.
func sortKey(c *Course, s SortField) (interface{}, bool) {
	vals := fieldValues(c, s.Field)
	if len(vals) == 0 {
		return nil, false
	}
	key := vals[0]
	for _, v := range vals[1:] {
		n, _ := compare(v, key)
		if (!s.Desc && n < 0) || (s.Desc && n > 0) {
			key = v
		}
	}
	return key, true
}

// Project copies only the requested fields (and the ID) of c.
func Project(c *Course, fields []string) *Course {
	if len(fields) == 0 {
		return c.Clone()
	}
	full := c.Clone()
	out := &Course{ID: full.ID}
	for _, f := range fields {
		switch f {
		case FieldName:
			out.Name = full.Name
		case FieldAuthor:
			out.Author = full.Author
		case FieldTags:
			out.Tags = full.Tags
		case FieldDate:
			out.Date = full.Date
		case FieldIsPublished:
			out.IsPublished = full.IsPublished
		}
	}
	return out
}
