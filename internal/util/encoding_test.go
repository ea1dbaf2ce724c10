package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureUTF8Bytes(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "empty", in: nil, want: ""},
		{name: "plain utf8", in: []byte(`[{"ifname":"eth0"}]`), want: `[{"ifname":"eth0"}]`},
		{name: "utf8 bom dropped", in: append([]byte{0xEF, 0xBB, 0xBF}, []byte("host1")...), want: "host1"},
		{name: "latin1 alias", in: []byte{'c', 'a', 'f', 0xE9}, want: "café"},
		{name: "utf16 little endian", in: []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, want: "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EnsureUTF8Bytes(tc.in))
		})
	}
}
