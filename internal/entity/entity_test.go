package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityValid(t *testing.T) {
	text := "저는 김민준입니다"

	tests := []struct {
		name   string
		entity Entity
		want   bool
	}{
		{
			name:   "matching span",
			entity: Entity{Kind: KindName, Value: "김민준", Start: 7, End: 16},
			want:   true,
		},
		{
			name:   "value mismatch",
			entity: Entity{Kind: KindName, Value: "이서준", Start: 7, End: 16},
			want:   false,
		},
		{
			name:   "negative start",
			entity: Entity{Kind: KindName, Value: "김민준", Start: -1, End: 8},
			want:   false,
		},
		{
			name:   "end past text",
			entity: Entity{Kind: KindName, Value: "김민준", Start: 7, End: 999},
			want:   false,
		},
		{
			name:   "empty span",
			entity: Entity{Kind: KindName, Value: "", Start: 7, End: 7},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entity.Valid(text))
		})
	}
}

func TestEntityOverlaps(t *testing.T) {
	a := Entity{Start: 0, End: 10}

	assert.True(t, a.Overlaps(Entity{Start: 5, End: 15}))
	assert.True(t, a.Overlaps(Entity{Start: 0, End: 10}))
	assert.True(t, a.Overlaps(Entity{Start: 9, End: 10}))
	assert.False(t, a.Overlaps(Entity{Start: 10, End: 20}), "touching spans do not overlap")
	assert.False(t, a.Overlaps(Entity{Start: 20, End: 30}))
}

func TestBaseValue(t *testing.T) {
	withHonorific := Entity{Kind: KindName, Value: "김민준님", Honorific: "님"}
	assert.Equal(t, "김민준", withHonorific.BaseValue())

	plain := Entity{Kind: KindName, Value: "김민준"}
	assert.Equal(t, "김민준", plain.BaseValue())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare mobile digits", "01012345678", "010-1234-5678"},
		{"already canonical", "010-1234-5678", "010-1234-5678"},
		{"dotted", "010.1234.5678", "010-1234-5678"},
		{"spaced", "010 1234 5678", "010-1234-5678"},
		{"international", "+82-10-1234-5678", "010-1234-5678"},
		{"old mobile ten digits", "0161234567", "016-123-4567"},
		{"seoul area nine digits", "021234567", "02-123-4567"},
		{"seoul area ten digits", "0212345678", "02-1234-5678"},
		{"area code ten digits", "0311234567", "031-123-4567"},
		{"unknown shape passes through", "12 34", "12 34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	name := Entity{Kind: KindName, Value: "김민준씨", Honorific: "씨"}
	assert.Equal(t, "김민준", NormalizeValue(name))

	phone := Entity{Kind: KindPhone, Value: "010 1234 5678"}
	assert.Equal(t, "010-1234-5678", NormalizeValue(phone))

	email := Entity{Kind: KindEmail, Value: "a@b.com"}
	assert.Equal(t, "a@b.com", NormalizeValue(email))
}
