package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sample() []*Course {
	d := func(y int) *time.Time { return Time(time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)) }
	return []*Course{
		{ID: primitive.NewObjectID(), Name: "React Course", Author: "Mosh", Tags: []string{"react", "frontend"}, Date: d(2018), IsPublished: Bool(true)},
		{ID: primitive.NewObjectID(), Name: "Node Course", Author: "Mosh", Tags: []string{"node", "backend"}, Date: d(2019), IsPublished: Bool(true)},
		{ID: primitive.NewObjectID(), Name: "Angular Course", Author: "Sandeep", Tags: []string{"angular", "frontend"}, Date: d(2020), IsPublished: Bool(false)},
		{ID: primitive.NewObjectID(), Name: "Draft", Tags: nil},
	}
}

func names(cs []*Course) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestFilterBSON(t *testing.T) {
	cases := []struct {
		name string
		f    Filter
		want bson.D
	}{
		{"eq", Eq(FieldAuthor, "Mosh"), bson.D{{Key: "author", Value: "Mosh"}}},
		{"ne", Ne(FieldAuthor, "Mosh"), bson.D{{Key: "author", Value: bson.D{{Key: "$ne", Value: "Mosh"}}}}},
		{"in", In(FieldTags, "a", "b"), bson.D{{Key: "tags", Value: bson.D{{Key: "$in", Value: bson.A{"a", "b"}}}}}},
		{"regex", Regex(FieldName, "^Node", "i"), bson.D{{Key: "name", Value: primitive.Regex{Pattern: "^Node", Options: "i"}}}},
		{"or", Or(Eq(FieldAuthor, "Mosh"), Eq(FieldIsPublished, true)), bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "author", Value: "Mosh"}},
			bson.D{{Key: "isPublished", Value: true}},
		}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.f.BSON())
		})
	}
}

func TestQueryBSONParts(t *testing.T) {
	q := Query{
		Sort:   []SortField{Asc(FieldName), Desc(FieldDate)},
		Fields: []string{FieldName, FieldTags},
	}
	require.Equal(t, bson.D{}, q.FilterBSON())
	require.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "date", Value: -1}}, q.SortBSON())
	require.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "tags", Value: 1}}, q.ProjectionBSON())

	require.Nil(t, Query{}.SortBSON())
	require.Nil(t, Query{}.ProjectionBSON())
	require.Equal(t, bson.D{{Key: "_id", Value: 1}}, Query{Fields: []string{FieldID}}.ProjectionBSON())
}

func TestFilterMatches(t *testing.T) {
	all := sample()
	cutoff := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		f    Filter
		want []string
	}{
		{"eq", Eq(FieldAuthor, "Mosh"), []string{"React Course", "Node Course"}},
		{"ne matches missing", Ne(FieldAuthor, "Mosh"), []string{"Angular Course", "Draft"}},
		{"gt date", Gt(FieldDate, cutoff), []string{"Angular Course"}},
		{"gte date", Gte(FieldDate, cutoff), []string{"Node Course", "Angular Course"}},
		{"lt date", Lt(FieldDate, cutoff), []string{"React Course"}},
		{"lte date", Lte(FieldDate, cutoff), []string{"React Course", "Node Course"}},
		{"array element eq", Eq(FieldTags, "frontend"), []string{"React Course", "Angular Course"}},
		{"in", In(FieldAuthor, "Sandeep", "Nobody"), []string{"Angular Course"}},
		{"nin matches missing", Nin(FieldTags, "frontend"), []string{"Node Course", "Draft"}},
		{"and", And(Eq(FieldAuthor, "Mosh"), Eq(FieldTags, "backend")), []string{"Node Course"}},
		{"or", Or(Eq(FieldAuthor, "Sandeep"), Eq(FieldName, "Draft")), []string{"Angular Course", "Draft"}},
		{"regex prefix", Regex(FieldName, "^node", "i"), []string{"Node Course"}},
		{"regex contains", Regex(FieldName, ".*ular.*", ""), []string{"Angular Course"}},
		{"regex suffix", Regex(FieldAuthor, "eep$", ""), []string{"Angular Course"}},
		{"bool", Eq(FieldIsPublished, false), []string{"Angular Course"}},
		{"type mismatch", Eq(FieldIsPublished, "true"), []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.f.Validate())
			got := []string{}
			for _, c := range all {
				if tc.f.Matches(c) {
					got = append(got, c.Name)
				}
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFilterValidate(t *testing.T) {
	bad := []Filter{
		Eq("price", 10),
		Eq(FieldName, 10),
		And(),
		Or(),
		In(FieldTags),
		Regex(FieldDate, "x", ""),
		Regex(FieldName, "(", ""),
		Regex(FieldName, "x", "q"),
		{Op: "$exists", Field: FieldName},
	}
	for _, f := range bad {
		require.ErrorIs(t, f.Validate(), ErrInvalidFilter, "%+v", f)
		require.False(t, f.Matches(&Course{Name: "x"}))
	}
}

func TestQueryApplyPublishedSortedLimitedProjected(t *testing.T) {
	f := Eq(FieldIsPublished, true)
	q := Query{Filter: &f, Sort: []SortField{Asc(FieldName)}, Limit: 2, Fields: []string{FieldName, FieldTags}}
	all := sample()

	got, err := q.Apply(all)
	require.NoError(t, err)
	require.Equal(t, []string{"Node Course", "React Course"}, names(got))
	for _, c := range got {
		require.False(t, c.ID.IsZero())
		require.Empty(t, c.Author)
		require.Nil(t, c.Date)
		require.Nil(t, c.IsPublished)
		require.NotEmpty(t, c.Tags)
	}
}

func TestQueryApplySortDescendingMissingLast(t *testing.T) {
	got, err := Query{Sort: []SortField{Desc(FieldDate)}}.Apply(sample())
	require.NoError(t, err)
	require.Equal(t, []string{"Angular Course", "Node Course", "React Course", "Draft"}, names(got))
}

func TestQueryApplySkipAndLimit(t *testing.T) {
	q := Query{Sort: []SortField{Asc(FieldName)}, Skip: 1, Limit: 2}
	got, err := q.Apply(sample())
	require.NoError(t, err)
	require.Equal(t, []string{"Draft", "Node Course"}, names(got))

	got, err = Query{Skip: 10}.Apply(sample())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestQueryApplySortsArraysByMinElement(t *testing.T) {
	cs := []*Course{
		{Name: "one", Tags: []string{"z", "b"}},
		{Name: "two", Tags: []string{"c"}},
	}
	got, err := Query{Sort: []SortField{Asc(FieldTags)}}.Apply(cs)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, names(got))

	got, err = Query{Sort: []SortField{Desc(FieldTags)}}.Apply(cs)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, names(got))
}

func TestQueryValidate(t *testing.T) {
	require.ErrorIs(t, Query{Sort: []SortField{Asc("price")}}.Validate(), ErrInvalidFilter)
	require.ErrorIs(t, Query{Fields: []string{"price"}}.Validate(), ErrInvalidFilter)
	require.ErrorIs(t, Query{Limit: -1}.Validate(), ErrInvalidFilter)
	require.NoError(t, Query{}.Validate())
}

func TestParseSort(t *testing.T) {
	got, err := ParseSort("name, -date,+author")
	require.NoError(t, err)
	require.Equal(t, []SortField{Asc(FieldName), Desc(FieldDate), Asc(FieldAuthor)}, got)

	_, err = ParseSort("-price")
	require.ErrorIs(t, err, ErrInvalidFilter)

	got, err = ParseSort("")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMutators(t *testing.T) {
	c := &Course{Tags: []string{"a"}}
	when := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	Chain(SetName("n"), SetAuthor("x"), AddTags("a", "b"), SetPublished(true), SetDate(when))(c)
	require.Equal(t, "n", c.Name)
	require.Equal(t, "x", c.Author)
	require.Equal(t, []string{"a", "b"}, c.Tags)
	require.True(t, c.Published())
	require.True(t, when.Equal(*c.Date))

	SetTags()(c)
	require.Empty(t, c.Tags)
}

func TestParseID(t *testing.T) {
	id := primitive.NewObjectID()
	got, err := ParseID(id.Hex())
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = ParseID("nope")
	require.ErrorIs(t, err, ErrInvalidID)
}
