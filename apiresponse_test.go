package websvc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseMessage_Json(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		m := ErrorMessage(415, "Content type not supported.", map[string]any{"request-content-type": "text/plain"})
		b, err := json.Marshal(m)
		assert.NoError(t, err)
		assert.Equal(t,
			`{"message":"Content type not supported.","type":"error","http-code":415,"more-info":{"request-content-type":"text/plain"}}`,
			string(b))
	})

	t.Run("no-type-no-more-info", func(t *testing.T) {
		b, err := json.Marshal(&ResponseMessage{Message: "ok", HttpCode: 200})
		assert.NoError(t, err)
		assert.Equal(t, `{"message":"ok","http-code":200}`, string(b))
	})
}

func TestIsSupportedContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"", false},
		{"text/plain", false},
		{"application/xml", false},
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"application/x-www-form-urlencoded", true},
		{"multipart/form-data; boundary=----x", true},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupportedContentType(tt.contentType))
		})
	}
}
