package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocator_NilSafe(t *testing.T) {
	var l *Locator
	assert.Equal(t, "", l.Lookup("203.0.113.9"))
	assert.NoError(t, l.Close())
}

func TestOpen_MissingDatabase(t *testing.T) {
	_, err := Open("does/not/exist.mmdb")
	assert.Error(t, err)
}
