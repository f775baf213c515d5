package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, limit, total int
		wantPages          int
	}{
		{1, 10, 0, 0},
		{1, 10, 10, 1},
		{1, 10, 11, 2},
		{3, 25, 100, 4},
		{1, 0, 5, 0},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.limit, tt.total)
		assert.Equal(t, tt.wantPages, p.TotalPages, "page=%d limit=%d total=%d", tt.page, tt.limit, tt.total)
		assert.Equal(t, tt.total, p.Total)
	}
}
