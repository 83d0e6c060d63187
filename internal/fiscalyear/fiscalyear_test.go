package fiscalyear

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		label   string
		want    int
		wantErr bool
	}{
		{label: "2024-25", want: 2024},
		{label: "1999-00", want: 1999},
		{label: "2099-00", want: 2099},
		{label: "2024-26", wantErr: true},
		{label: "2024/25", wantErr: true},
		{label: "24-25", wantErr: true},
		{label: "2024-2025", wantErr: true},
		{label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := Parse(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, Valid(tt.label))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, Valid(tt.label))
		})
	}
}

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "first_day", at: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), want: "2024-25"},
		{name: "last_day", at: time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC), want: "2024-25"},
		{name: "january", at: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), want: "2024-25"},
		{name: "december", at: time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC), want: "2024-25"},
		{name: "century_rollover", at: time.Date(2099, time.May, 1, 0, 0, 0, 0, time.UTC), want: "2099-00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.at))
		})
	}
}

func TestNext(t *testing.T) {
	next, err := Next("2024-25")
	require.NoError(t, err)
	assert.Equal(t, "2025-26", next)

	_, err = Next("bogus")
	assert.Error(t, err)
}

func TestBounds(t *testing.T) {
	from, to, err := Bounds("2024-25", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), to)
}
