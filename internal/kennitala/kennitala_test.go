package kennitala

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		want       Birth
		wantErr    bool
	}{
		{
			name:       "hyphenated 1900s identifier",
			identifier: "290786-1239",
			want:       Birth{Year: 1986, Month: time.July, Day: 29},
		},
		{
			name:       "stripped 2000s identifier",
			identifier: "0101010120",
			want:       Birth{Year: 2001, Month: time.January, Day: 1},
		},
		{
			name:       "century digit zero maps to 2000s",
			identifier: "3112990120",
			want:       Birth{Year: 2099, Month: time.December, Day: 31},
		},
		{
			name:       "non-zero non-nine century digit maps to 1900s",
			identifier: "0101010125",
			want:       Birth{Year: 1901, Month: time.January, Day: 1},
		},
		{
			name:       "too short",
			identifier: "290786",
			wantErr:    true,
		},
		{
			name:       "too long after stripping",
			identifier: "290786-12345",
			wantErr:    true,
		},
		{
			name:       "non-digit characters",
			identifier: "29o786-1239",
			wantErr:    true,
		},
		{
			name:       "day out of range",
			identifier: "320786-1239",
			wantErr:    true,
		},
		{
			name:       "month out of range",
			identifier: "291386-1239",
			wantErr:    true,
		},
		{
			name:       "empty",
			identifier: "",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.identifier)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCenturyBuckets(t *testing.T) {
	// The tenth digit is the only century input: 0 lands in [2000, 2099],
	// anything else in [1900, 1999].
	for digit := byte('0'); digit <= '9'; digit++ {
		id := "010150012" + string(digit)
		birth, err := Parse(id)
		require.NoError(t, err)
		if digit == '0' {
			assert.Equal(t, 2050, birth.Year)
		} else {
			assert.Equal(t, 1950, birth.Year)
		}
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2025, time.January, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		identifier string
		now        time.Time
		want       int
	}{
		{
			name:       "birthday already passed this year",
			identifier: "0101010120", // 2001-01-01
			now:        now,
			want:       24,
		},
		{
			name:       "day before birthday",
			identifier: "0301010120", // 2001-01-03
			now:        now,
			want:       23,
		},
		{
			name:       "on the birthday",
			identifier: "0201010120", // 2001-01-02
			now:        now,
			want:       24,
		},
		{
			name:       "1900s identifier",
			identifier: "290786-1239", // 1986-07-29
			now:        now,
			want:       38,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Age(tt.identifier, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgeBirthdayBoundary(t *testing.T) {
	// Moving now backward by one day never increases the age, and decreases
	// it by exactly one when crossing the birthday.
	const id = "1506050120" // 2005-06-15
	day := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

	prev, err := Age(id, day)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		day = day.AddDate(0, 0, -1)
		cur, err := Age(id, day)
		require.NoError(t, err)
		assert.LessOrEqual(t, cur, prev, "age must not increase moving backward in time")
		assert.GreaterOrEqual(t, cur, prev-1, "age drops by at most one per day")
		prev = cur
	}

	onBirthday, err := Age(id, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	dayBefore, err := Age(id, time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 20, onBirthday)
	assert.Equal(t, 19, dayBefore)
}

func TestAgeMalformed(t *testing.T) {
	_, err := Age("not-a-kennitala", time.Now())
	assert.ErrorIs(t, err, ErrMalformed)
}
