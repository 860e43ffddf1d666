package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowDecodingAcceptsIDVariants(t *testing.T) {
	t.Parallel()

	var rows []Feedback

	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"f-1","status":"Pending","createdAt":"2024-03-01T10:00:00Z"},
		{"_id":"65f0c1","status":"Published","createdAt":"2024-03-02 08:15:00"},
		{"id":42,"status":"Rejected","createdAt":1709280000000,"rating":4},
		{"id":null,"_id":"x","createdAt":"yesterday"}
	]`), &rows))

	require.Len(t, rows, 4)
	assert.Equal(t, ID("f-1"), rows[0].ID)
	assert.Equal(t, ID("65f0c1"), rows[1].ID)
	assert.Equal(t, ID("42"), rows[2].ID)
	assert.Equal(t, ID("x"), rows[3].ID)

	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), rows[0].CreatedAt.Time)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 15, 0, 0, time.UTC), rows[1].CreatedAt.Time)
	assert.Equal(t, time.UnixMilli(1709280000000).UTC(), rows[2].CreatedAt.Time)
	assert.True(t, rows[3].CreatedAt.IsZero())
	assert.Nil(t, rows[3].CreatedAt.Value())

	require.NotNil(t, rows[2].Rating)
	assert.Equal(t, 4, *rows[2].Rating)
}

func TestPersonName(t *testing.T) {
	t.Parallel()

	var nobody *Person

	assert.Empty(t, nobody.Name())
	assert.Equal(t, "Ada Obi", (&Person{FirstName: "Ada", LastName: "Obi"}).Name())
	assert.Equal(t, "Desk Sergeant", (&Person{FullName: "Desk Sergeant", FirstName: "x"}).Name())
	assert.Equal(t, "a@b.ng", (&Person{Email: "a@b.ng"}).Name())
}

func TestTimestampMarshal(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		A Timestamp `json:"a"`
		B Timestamp `json:"b"`
	}{A: Timestamp{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2024-01-02T03:04:05Z","b":null}`, string(b))
}
