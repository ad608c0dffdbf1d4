package web

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDist(t *testing.T) {
	dist, err := Dist()
	require.NoError(t, err)

	for _, name := range []string{"index.html", "assets/app.js", "assets/app.css"} {
		_, err := fs.Stat(dist, name)
		assert.NoError(t, err, name)
	}
}
