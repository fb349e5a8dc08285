package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	s := &S3Service{bucket: "bookworm-covers", region: "eu-west-1"}
	assert.Equal(t,
		"https://bookworm-covers.s3.eu-west-1.amazonaws.com/covers/abc.jpg",
		s.PublicURL("covers/abc.jpg"))
}
