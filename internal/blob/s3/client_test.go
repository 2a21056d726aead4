package s3blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://e2.example.com", normaliseEndpoint("https://e2.example.com", false))
	assert.Equal(t, "http://localhost:9000", normaliseEndpoint("localhost:9000", false))
	assert.Equal(t, "https://minio.internal", normaliseEndpoint("minio.internal", true))
	assert.Equal(t, "https://127.0.0.1:9000", normaliseEndpoint("127.0.0.1:9000", true))
	assert.Equal(t, "http://minio:9000/", normaliseEndpoint("http://minio:9000/", true))
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "spreads.json", (&Client{}).ObjectKey("/spreads.json"))
	assert.Equal(t, "prod/data/spreads.json", (&Client{prefix: "prod"}).ObjectKey("data/spreads.json"))
}
