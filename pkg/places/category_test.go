package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "hospital", want: "hospital"},
		{in: "  School ", want: "school"},
		{in: "mall", want: "shopping_mall"},
		{in: "MALL", want: "shopping_mall"},
		{in: "shopping_mall", want: "shopping_mall"},
		{in: "grocery_or_supermarket", want: "grocery_or_supermarket"},
		{in: "spaceport", wantErr: true},
		{in: "hospitals", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeCategory(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCategories_DropsRepeats(t *testing.T) {
	got, err := NormalizeCategories([]string{"mall", "park", "shopping_mall", "Park"})
	require.NoError(t, err)
	assert.Equal(t, []string{"shopping_mall", "park"}, got)
}

func TestIsPropertyCategory(t *testing.T) {
	assert.True(t, IsPropertyCategory("mall"))
	assert.True(t, IsPropertyCategory("gym"))
	assert.False(t, IsPropertyCategory("bank"))
	assert.False(t, IsPropertyCategory("shopping_mall"))
}
