package gmail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchQuery(t *testing.T) {
	q := searchQuery([]string{"census", "open enrollment", "benefits"})
	require.Equal(t, `subject:(census OR "open enrollment" OR benefits) OR filename:(xlsx OR xls)`, q)
}
