package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type keyParams struct {
	Page  int    `json:"page"`
	Title string `json:"title,omitempty"`
}

func TestKeyIsStableAndDistinct(t *testing.T) {
	a, err := Key("posts:list:", keyParams{Page: 1, Title: "go"})
	require.NoError(t, err)
	b, err := Key("posts:list:", keyParams{Page: 1, Title: "go"})
	require.NoError(t, err)
	c, err := Key("posts:list:", keyParams{Page: 2, Title: "go"})
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.True(t, strings.HasPrefix(a, "posts:list:"))
}

func TestKeyRejectsUnserialisableParams(t *testing.T) {
	_, err := Key("x:", make(chan int))
	require.Error(t, err)
}

func TestCodecRoundTrip(t *testing.T) {
	type payload struct {
		Total int64     `msgpack:"total"`
		At    time.Time `msgpack:"at"`
	}
	in := payload{Total: 3, At: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	data, err := Encode(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, Decode(data, &out))
	require.Equal(t, in.Total, out.Total)
	require.True(t, in.At.Equal(out.At))

	require.Error(t, Decode([]byte{0xc1}, &out))
}
