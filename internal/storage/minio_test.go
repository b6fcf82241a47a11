package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeletePrefix_RejectsBroadPrefixes(t *testing.T) {
	m := &minioStorage{bucket: "docs"}
	for _, prefix := range []string{"", "/", "//", "applicants/app-1"} {
		n, err := m.DeletePrefix(context.Background(), prefix)
		assert.ErrorIs(t, err, ErrInvalidPrefix, prefix)
		assert.Zero(t, n)
	}
}

func TestValidPrefix(t *testing.T) {
	assert.NoError(t, validPrefix("applicants/app-1/"))
	assert.NoError(t, validPrefix("a/"))
	assert.Error(t, validPrefix("applicants"))
}
