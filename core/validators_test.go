package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testInput struct {
	Name   string `json:"name" validate:"notblank"`
	Email  string `json:"email" validate:"omitempty,email"`
	Secret string `json:"-" validate:"omitempty,min=3"`
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		in      testInput
		wantMsg string
		want    map[string]string
	}{
		{name: "valid", in: testInput{Name: "Alice", Email: "alice@test.cd"}},
		{
			name:    "blank",
			in:      testInput{Name: "   "},
			wantMsg: "please fill all fields",
			want:    map[string]string{"name": notBlankText},
		},
		{
			name:    "invalid",
			in:      testInput{Name: "Alice", Email: "alice"},
			wantMsg: "invalid input",
			want:    map[string]string{"email": "email must be a valid email address"},
		},
		{
			name:    "blank wins",
			in:      testInput{Email: "alice"},
			wantMsg: "please fill all fields",
			want:    map[string]string{"name": notBlankText, "email": "email must be a valid email address"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			verr, ok := err.(*ValidationError)
			require.True(t, ok, "got %T", err)
			assert.Equal(t, tt.wantMsg, verr.Error())
			assert.Equal(t, tt.want, verr.FieldMap())
		})
	}
}

func TestParseOrdering(t *testing.T) {
	allowed := []string{"name", "created_at"}

	tests := []struct {
		name    string
		s       string
		want    []DBOrdering
		wantErr bool
	}{
		{name: "empty", s: " "},
		{name: "asc", s: "name", want: []DBOrdering{{Field: "name", Ascending: true}}},
		{
			name: "several",
			s:    "-created_at, name",
			want: []DBOrdering{{Field: "created_at"}, {Field: "name", Ascending: true}},
		},
		{name: "not allowed", s: "name,password", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrdering(tt.s, allowed...)
			if tt.wantErr {
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "created_at DESC", DBOrdering{Field: "created_at"}.String())
}
