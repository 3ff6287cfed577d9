package valueobject

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateEncodedBytes(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int64
	}{
		{name: "empty", data: "", want: 0},
		{name: "plain base64", data: "QUJDRA==", want: 6},
		{name: "data uri prefix stripped", data: "data:image/png;base64,QUJDRA==", want: 6},
		{name: "data uri without comma kept whole", data: "data:broken", want: 8},
		{name: "large payload", data: strings.Repeat("A", 4000), want: 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateEncodedBytes(tt.data))
		})
	}
}

func TestMediaList_TotalBytes(t *testing.T) {
	list := MediaList{
		{Name: "front.jpg", Data: "data:image/jpeg;base64," + strings.Repeat("A", 400)},
		{Name: "rear.jpg", Data: strings.Repeat("B", 800)},
	}

	assert.Equal(t, int64(900), list.TotalBytes())
	assert.Equal(t, int64(0), MediaList(nil).TotalBytes())
}

func TestMediaList_ValueScan(t *testing.T) {
	t.Run("nil list stores empty array", func(t *testing.T) {
		v, err := MediaList(nil).Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", v)
	})

	t.Run("scan from bytes", func(t *testing.T) {
		var l MediaList
		require.NoError(t, l.Scan([]byte(`[{"name":"a","data":"QUJD"}]`)))
		require.Len(t, l, 1)
		assert.Equal(t, "a", l[0].Name)
	})

	t.Run("scan nil yields empty list", func(t *testing.T) {
		var l MediaList
		require.NoError(t, l.Scan(nil))
		assert.NotNil(t, l)
		assert.Empty(t, l)
	})

	t.Run("scan rejects unsupported type", func(t *testing.T) {
		var l MediaList
		assert.Error(t, l.Scan(42))
	})
}

func TestMediaList_Clone(t *testing.T) {
	orig := MediaList{{Name: "a", Data: "QUJD"}}
	clone := orig.Clone()
	clone[0].Name = "b"

	assert.Equal(t, "a", orig[0].Name)
	assert.Nil(t, MediaList(nil).Clone())
}
