package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservers(t *testing.T) {
	t.Parallel()

	var o Observers[int]
	var got []string

	unsubA := o.Subscribe(func(v int) { got = append(got, "a") })
	o.Subscribe(func(v int) { got = append(got, "b") })
	assert.Equal(t, 2, o.Len())

	o.Notify(1)
	assert.Equal(t, []string{"a", "b"}, got)

	unsubA()
	unsubA()
	o.Notify(2)
	assert.Equal(t, []string{"a", "b", "b"}, got)
	assert.Equal(t, 1, o.Len())
}
