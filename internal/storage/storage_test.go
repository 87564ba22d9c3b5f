package storage

import (
	"testing"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL(t *testing.T) {
	s, err := NewMinIOStore(config.MinIOConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "rajdhani",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/rajdhani/products/p1/a.png", s.ObjectURL("products/p1/a.png"))

	s, err = NewMinIOStore(config.MinIOConfig{
		Endpoint:  "localhost:9000",
		Bucket:    "rajdhani",
		PublicURL: "https://cdn.example.com/rajdhani/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/rajdhani/products/p1/a.png", s.ObjectURL("/products/p1/a.png"))
}
