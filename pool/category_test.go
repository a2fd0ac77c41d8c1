package pool

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
)

func TestCategoryClosedSet(t *testing.T) {
	cats := Categories()

	require.Len(t, cats, 3)
	assert.Equal(t, []Category{StakeValidator, ParliamentaryValidator, MeritValidator}, cats)

	for _, c := range cats {
		assert.True(t, c.Valid())
		assert.NotEmpty(t, c.Label())
		assert.NotEmpty(t, c.Requirement())
		assert.NotContains(t, c.String(), "unknown")
	}

	unknown := Category(9)
	assert.False(t, unknown.Valid())
	assert.Equal(t, "unknown(9)", unknown.String())
	assert.Equal(t, "Unknown", unknown.Label())
	assert.Empty(t, unknown.Requirement())
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "stake", want: StakeValidator},
		{in: "parliamentary", want: ParliamentaryValidator},
		{in: "merit", want: MeritValidator},
		{in: "Stake", wantErr: true},
		{in: "governance", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, poolerrors.ErrInvalidCategory))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryJSONRoundTrip(t *testing.T) {
	for _, c := range Categories() {
		data, err := json.Marshal(c)
		require.NoError(t, err)
		assert.Equal(t, `"`+c.String()+`"`, string(data))

		var back Category
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, c, back)
	}

	var c Category
	err := json.Unmarshal([]byte(`"governor"`), &c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, poolerrors.ErrInvalidCategory))

	_, err = json.Marshal(Category(200))
	require.Error(t, err)
}
