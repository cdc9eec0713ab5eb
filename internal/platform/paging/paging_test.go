package paging

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x?limit=500&offset=-3&order=ASC", nil)

	p := FromQuery(c)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, "asc", p.Order)
	assert.Equal(t, "ASC", p.SQLOrder())
}

func TestNewList(t *testing.T) {
	p := Page{Limit: 10, Offset: 10}.Normalize()
	l := NewList[int](nil, 25, p)
	assert.NotNil(t, l.Items)
	assert.Equal(t, 20, l.NextOffset)

	l = NewList([]int{1}, 20, p)
	assert.Equal(t, 0, l.NextOffset)
}

func TestOptHelpers(t *testing.T) {
	assert.Nil(t, OptUint("abc"))
	assert.Nil(t, OptUint("0"))
	assert.Equal(t, uint64(7), *OptUint("7"))
	assert.Nil(t, OptString("   "))
	assert.Nil(t, OptBool("maybe"))
	assert.True(t, *OptBool("1"))
}
