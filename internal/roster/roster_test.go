package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	r := Roster(Default)

	n, ok := r.Find("theo")
	assert.True(t, ok)
	assert.Equal(t, "Carpenter", n.Role)

	n, ok = r.Find("MIRA")
	assert.True(t, ok)
	assert.Equal(t, "mira", n.ID)

	_, ok = r.Find("nobody")
	assert.False(t, ok)
}

func TestIDs(t *testing.T) {
	assert.Equal(t, []string{"mira", "theo", "jun", "pia"}, Roster(Default).IDs())
}
