package objstore

import (
	"testing"

	"ecommerce-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	contentType, data, err := parseDataURL("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte("hello"), data)
}

func TestParseDataURL_Invalid(t *testing.T) {
	cases := []string{
		"",
		"http://example.com/a.png",
		"data:image/png,aGVsbG8=",
		"data:image/png;base64",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
	}
	for _, c := range cases {
		_, _, err := parseDataURL(c)
		assert.ErrorIs(t, err, ErrInvalidImage, c)
	}
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/ecommerce",
		publicBaseURL(config.MinIOConfig{Endpoint: "localhost:9000"}, "ecommerce"))
	assert.Equal(t, "https://s3.example.com/ecommerce",
		publicBaseURL(config.MinIOConfig{Endpoint: "s3.example.com", UseSSL: true}, "ecommerce"))
	assert.Equal(t, "https://cdn.example.com/ecommerce",
		publicBaseURL(config.MinIOConfig{Endpoint: "minio:9000", PublicURL: "https://cdn.example.com/"}, "ecommerce"))
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(config.MinIOConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
