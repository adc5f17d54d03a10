package selection

import (
	"testing"

	"github.com/asaidimu/go-tableview/core/schema"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.Equal(t, "Id", New("").IdentityField())
	assert.Equal(t, "id", New("id").IdentityField())
	assert.Equal(t, 0, New("").Len())
}

func TestSet_ID(t *testing.T) {
	s := New("Id")

	id, ok := s.ID(schema.Record{"Id": "001A"})
	assert.True(t, ok)
	assert.Equal(t, "001A", id)

	id, ok = s.ID(schema.Record{"Id": 7})
	assert.True(t, ok)
	assert.Equal(t, "7", id)

	_, ok = s.ID(schema.Record{"id": "001A"})
	assert.False(t, ok, "identity field is case-sensitive")

	_, ok = s.ID(schema.Record{"Id": nil})
	assert.False(t, ok)
}

func TestSet_SelectDeselectToggle(t *testing.T) {
	s := New("")
	s.Select("b", "a", "", "a")
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	s.Deselect("a", "missing")
	assert.Equal(t, []string{"b"}, s.IDs())

	assert.True(t, s.Toggle("c"))
	assert.False(t, s.Toggle("b"))
	assert.Equal(t, []string{"c"}, s.IDs())

	s.Replace("x", "y")
	assert.Equal(t, []string{"x", "y"}, s.IDs())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.IDs())
}

func TestSet_Displayed(t *testing.T) {
	s := New("Id")
	s.Select("2", "9")

	page := []schema.Record{{"Id": "1"}, {"Id": "2"}, {"name": "no id"}, {"Id": "3"}}
	assert.Equal(t, []string{"2"}, s.Displayed(page))
	assert.Empty(t, s.Displayed(nil))
}

func TestSet_Reconcile(t *testing.T) {
	s := New("Id")
	s.Select("1", "9")

	page := []schema.Record{{"Id": "1"}, {"Id": "2"}, {"Id": "3"}}

	changed := s.Reconcile(page, []string{"2", "3"})
	assert.True(t, changed)
	assert.Equal(t, []string{"2", "3", "9"}, s.IDs(), "row 9 is on another page and stays selected")

	assert.False(t, s.Reconcile(page, []string{"2", "3"}))

	s.Reconcile(page, nil)
	assert.Equal(t, []string{"9"}, s.IDs())
}

func TestSet_Clone(t *testing.T) {
	s := New("Id")
	s.Select("1")
	c := s.Clone()
	c.Select("2")
	assert.Equal(t, []string{"1"}, s.IDs())
	assert.Equal(t, []string{"1", "2"}, c.IDs())
}
