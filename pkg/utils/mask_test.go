package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "eyJh***", MaskSecret("eyJhbGciOiJIUzI1NiJ9.payload.sig"))
	assert.Equal(t, "***", MaskSecret("abc"))
	assert.Equal(t, "***", MaskSecret(""))
	assert.Equal(t, "secr***", MaskSecret("secret"))
}
