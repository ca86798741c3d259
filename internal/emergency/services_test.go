package emergency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoose(t *testing.T) {
	tests := []struct {
		input  string
		name   string
		dialed string
	}{
		{"1", "Fire Rescue", "tel:118"},
		{"2", "Police", "tel:117"},
		{" 3 ", "Ambulance", "tel:119"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Choose(tt.input)
			require.NotNil(t, c.Service)
			assert.Equal(t, tt.name, c.Service.Name)
			assert.Equal(t, tt.dialed, c.DialURI)
			assert.Empty(t, c.Listing)
		})
	}
}

func TestChoose_OtherInputShowsListing(t *testing.T) {
	for _, input := range []string{"", "4", "0", "fire", "01"} {
		c := Choose(input)
		assert.Nil(t, c.Service, "input %q", input)
		assert.Empty(t, c.DialURI, "input %q", input)
		assert.Contains(t, c.Listing, "Emergency Services in Cameroon")
		assert.Contains(t, c.Listing, "Fire Rescue: 118")
		assert.Contains(t, c.Listing, "Police: 117")
		assert.Contains(t, c.Listing, "Ambulance: 119")
	}
}

func TestServices_ReturnsCopy(t *testing.T) {
	s := Services()
	s[0].Number = "000"
	assert.Equal(t, "118", Services()[0].Number)
}

func TestPrompt(t *testing.T) {
	p := Prompt()
	assert.Contains(t, p, "1 - Fire Rescue (118)")
	assert.Contains(t, p, "Enter 1, 2, or 3:")
}
