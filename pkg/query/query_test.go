package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verseworks/scriptorium/pkg/query"
)

func TestIDs(t *testing.T) {
	assert.Equal(t, []int{3, 7, 12}, query.IDs("3,7,12"))
	assert.Equal(t, []int{3, 12}, query.IDs("3, abc ,12"))
	assert.Nil(t, query.IDs(""))
	assert.Nil(t, query.IDs("a,b"))
}

func TestStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, query.StringSlice(" a , b ,"))
	assert.Nil(t, query.StringSlice(""))
}
