package secret

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTakesOwnership(t *testing.T) {
	buf := []byte("hunter2")
	s := New(buf)

	require.Equal(t, []byte("hunter2"), s.Expose())
	s.Destroy()

	assert.Equal(t, make([]byte, len("hunter2")), buf, "backing memory should be zeroed")
	assert.Nil(t, s.Expose())
	assert.True(t, s.Destroyed())
}

func TestCopyLeavesSourceIntact(t *testing.T) {
	src := []byte("hunter2")
	s := Copy(src)
	s.Destroy()

	assert.Equal(t, []byte("hunter2"), src)
}

func TestDestroyIsIdempotent(t *testing.T) {
	s := FromString("abc")
	s.Destroy()
	s.Destroy()

	var nilSecret *Secret
	nilSecret.Destroy()
	assert.True(t, nilSecret.Destroyed())
	assert.Nil(t, nilSecret.Expose())
}

func TestEqual(t *testing.T) {
	s := FromString("Correct1!")
	defer s.Destroy()

	assert.True(t, s.Equal([]byte("Correct1!")))
	assert.False(t, s.Equal([]byte("Correct1?")))
	assert.False(t, s.Equal(nil))
}

func TestCloneIsIndependent(t *testing.T) {
	s := FromString("abc")
	c := s.Clone()
	s.Destroy()

	assert.Equal(t, []byte("abc"), c.Expose())
	c.Destroy()
}

func TestFormattingRedacts(t *testing.T) {
	s := FromString("hunter2")
	defer s.Destroy()

	for _, verb := range []string{"%s", "%v", "%+v", "%#v"} {
		out := fmt.Sprintf(verb, s)
		assert.NotContains(t, out, "hunter2", verb)
	}
}

func TestUse(t *testing.T) {
	s := FromString("xyz")
	defer s.Destroy()

	var seen string
	err := s.Use(func(b []byte) error {
		seen = string(b)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "xyz", seen)
	assert.Equal(t, 3, s.Len())
}
