package model_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todosync/internal/model"
)

func TestValidateDescription_TrimInvariant(t *testing.T) {
	inputs := []string{
		"", " ", "\t\n", "Buy milk", "  Buy milk  ", "\tx\n",
		strings.Repeat("a", 500), " " + strings.Repeat("a", 500) + " ",
		strings.Repeat("a", 501), strings.Repeat("é", 500),
	}
	for _, s := range inputs {
		got1, err1 := model.ValidateDescription(s)
		got2, err2 := model.ValidateDescription(strings.TrimSpace(s))
		assert.Equal(t, got1, got2, "input %q", s)
		assert.Equal(t, err1 == nil, err2 == nil, "input %q", s)
		if err1 != nil {
			assert.Equal(t, err1.Error(), err2.Error(), "input %q", s)
		}
	}
}

func TestValidateDescription_Messages(t *testing.T) {
	_, err := model.ValidateDescription("   ")
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, model.MsgDescriptionEmpty, err.Error())

	_, err = model.ValidateDescription(strings.Repeat("x", 501))
	require.Error(t, err)
	assert.Equal(t, model.MsgDescriptionTooLong, err.Error())

	got, err := model.ValidateDescription("  Buy milk ")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got)
}

func TestValidateDescription_CountsCharactersNotBytes(t *testing.T) {
	_, err := model.ValidateDescription(strings.Repeat("日", 500))
	assert.NoError(t, err)
}

func TestNormalizeCreate(t *testing.T) {
	cat := "  work "
	in, err := model.NormalizeCreate(model.CreateInput{Description: " Ship ", Priority: model.PriorityHigh, Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, "Ship", in.Description)
	require.NotNil(t, in.Category)
	assert.Equal(t, "work", *in.Category)

	blank := "   "
	in, err = model.NormalizeCreate(model.CreateInput{Description: "Ship", Category: &blank})
	require.NoError(t, err)
	assert.Nil(t, in.Category)

	_, err = model.NormalizeCreate(model.CreateInput{Description: "Ship", Priority: "Urgent"})
	require.Error(t, err)
	assert.Equal(t, model.MsgPriorityInvalid, err.Error())

	long := strings.Repeat("c", 51)
	_, err = model.NormalizeCreate(model.CreateInput{Description: "Ship", Category: &long})
	require.Error(t, err)
	assert.Equal(t, model.MsgCategoryTooLong, err.Error())

	_, err = model.NormalizeCreate(model.CreateInput{Description: " \t "})
	require.Error(t, err)
	assert.Equal(t, model.MsgDescriptionEmpty, err.Error())
}

func TestNormalizeUpdate(t *testing.T) {
	empty := "  "
	_, err := model.NormalizeUpdate(model.UpdateInput{Description: &empty})
	require.Error(t, err)
	assert.Equal(t, model.MsgDescriptionEmpty, err.Error())

	bad := model.Priority("urgent")
	_, err = model.NormalizeUpdate(model.UpdateInput{Priority: &bad})
	require.Error(t, err)

	desc := " new text "
	out, err := model.NormalizeUpdate(model.UpdateInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "new text", *out.Description)

	done := true
	out, err = model.NormalizeUpdate(model.UpdateInput{Completed: &done})
	require.NoError(t, err)
	assert.Nil(t, out.Description)
}

func TestPriority(t *testing.T) {
	p, err := model.ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, p)

	_, err = model.ParsePriority("urgent")
	assert.Error(t, err)

	assert.Equal(t, model.PriorityMedium, model.Priority("").OrDefault())
	assert.Equal(t, model.PriorityHigh, model.Priority("").Next())
	assert.Equal(t, model.PriorityLow, model.PriorityHigh.Next())
}

func TestTodoItem_DecodesNaiveTimestamps(t *testing.T) {
	raw := `{"id":1,"description":"Test","completed":false,
		"created_at":"2025-01-27T10:00:00","updated_at":"2025-01-27T10:05:00.123456"}`
	var it model.TodoItem
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	assert.Equal(t, time.Date(2025, 1, 27, 10, 0, 0, 0, time.UTC), it.CreatedAt.Time)
	assert.False(t, it.UpdatedAt.Before(it.CreatedAt.Time))
	assert.Equal(t, model.PriorityMedium, it.Priority.OrDefault())
	assert.Nil(t, it.DueDate)

	raw = `{"id":2,"description":"x","completed":true,"priority":"High","due_date":"2025-02-01T00:00:00Z",
		"category":"home","created_at":"2025-01-27T10:00:00Z","updated_at":"2025-01-27T10:00:00Z"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	require.NotNil(t, it.DueDate)
	assert.Equal(t, 2025, it.DueDate.Year())
	assert.Equal(t, "home", it.CategoryOrEmpty())
}

func TestUpdateInput_OmitsUnsetFields(t *testing.T) {
	done := false
	b, err := json.Marshal(model.UpdateInput{Completed: &done})
	require.NoError(t, err)
	assert.JSONEq(t, `{"completed":false}`, string(b))
}

func TestUpdateInput_ApplyTo(t *testing.T) {
	it := model.TodoItem{ID: 1, Description: "old"}
	desc, cat, prio := "new", "errands", model.PriorityLow
	model.UpdateInput{Description: &desc, Category: &cat, Priority: &prio}.ApplyTo(&it)
	assert.Equal(t, "new", it.Description)
	assert.Equal(t, "errands", it.CategoryOrEmpty())
	assert.Equal(t, model.PriorityLow, it.Priority)
	assert.True(t, model.UpdateInput{}.IsEmpty())
}
