package util

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, Keys([]int{1, 2, 3}, strconv.Itoa))
	assert.Empty(t, Keys(nil, strconv.Itoa))
}
