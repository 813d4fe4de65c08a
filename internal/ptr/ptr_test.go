package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo(t *testing.T) {
	p := To("A-001")
	assert.Equal(t, "A-001", *p)
}

func TestNonZero(t *testing.T) {
	assert.Nil(t, NonZero(""))
	assert.Nil(t, NonZero(0))
	assert.Equal(t, "zone-1", *NonZero("zone-1"))
}
