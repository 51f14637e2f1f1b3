package websvc

import "strings"

const (
	// ContentTypeNone 未指定类型。
	ContentTypeNone = ""

	// ContentTypeJson 对应 Content-Type: application/json 的值。
	ContentTypeJson = "application/json"

	// ContentTypePlainText 对应 Content-Type: text/plain 的值。
	ContentTypePlainText = "text/plain"

	// ContentTypeForm 对应 Content-Type: application/x-www-form-urlencoded 的值。
	ContentTypeForm = "application/x-www-form-urlencoded"

	// ContentTypeMultipartForm 对应 Content-Type: multipart/form-data 的值。
	ContentTypeMultipartForm = "multipart/form-data"
)

const (
	// HttpHeaderContentType 对应 HTTP 头中的 Content-Type 字段。
	HttpHeaderContentType = "Content-Type"

	// HttpHeaderRequestId 对应 HTTP 头中的 X-Request-ID 字段。
	HttpHeaderRequestId = "X-Request-ID"

	// HttpHeaderForwardedFor 对应 HTTP 头中的 X-Forwarded-For 字段。
	HttpHeaderForwardedFor = "X-Forwarded-For"
)

// ResponseMessage.Type 的预定义值。
const (
	ResponseTypeError   = "error"
	ResponseTypeInfo    = "info"
	ResponseTypeSuccess = "success"
)

// ResponseMessage 是服务以 JSON 返回的消息，所有错误响应都使用此格式：
//
//	{"message": "...", "type": "error", "http-code": 404, "more-info": {...}}
//
// type 为空字符串时不输出； more-info 为 nil 时不输出。
type ResponseMessage struct {
	Message  string `json:"message"`
	Type     string `json:"type,omitempty"`
	HttpCode int    `json:"http-code"`
	MoreInfo any    `json:"more-info,omitempty"`
}

// ErrorMessage 返回一个 type 为 error 的 ResponseMessage 。
func ErrorMessage(httpCode int, message string, moreInfo any) *ResponseMessage {
	return &ResponseMessage{
		Message:  message,
		Type:     ResponseTypeError,
		HttpCode: httpCode,
		MoreInfo: moreInfo,
	}
}

// 请求的 Content-Type 以这些值开头时被接受，其后可以有 charset 、 boundary 等参数。
var supportedContentTypes = []string{
	ContentTypeForm,
	ContentTypeMultipartForm,
	ContentTypeJson,
}

// IsSupportedContentType 判断 POST/PUT 请求的 Content-Type 是否被支持。
func IsSupportedContentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, v := range supportedContentTypes {
		if strings.HasPrefix(contentType, v) {
			return true
		}
	}
	return false
}

// isJsonContentType 判断 Content-Type 是否表示 JSON 格式的 body 。
func isJsonContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), ContentTypeJson)
}

// isMultipartContentType 判断 Content-Type 是否表示 multipart 格式的 body 。
func isMultipartContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), ContentTypeMultipartForm)
}
