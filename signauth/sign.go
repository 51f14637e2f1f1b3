package signauth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cmstar/go-websvc"
)

/* 当前文件提供签名算法的实现。 */

const (
	// DefaultAuthScheme 是 Authorization 头默认的 scheme 部分。
	DefaultAuthScheme = "WEBSVC-AUTH"

	// DefaultSignVersion 是当前的签名算法版本。
	DefaultSignVersion = 1

	// HttpHeaderAuthorization 对应 HTTP 头中的 Authorization 字段。
	HttpHeaderAuthorization = "Authorization"

	// QueryAuth 是可替代 Authorization 头的 URL 参数，不参与签名计算。
	QueryAuth = "~auth"
)

// Authorization 记录 Authorization 头的内容。
type Authorization struct {
	AuthScheme string // Authorization 头最前面的 Scheme 部分。
	Key        string // 请求方的标识。
	Sign       string // 签名。
	Timestamp  int64  // 生成签名时的 UNIX 时间戳，单位是秒。
	Version    int    // 算法版本。在 Authorization 头未给出时，默认为 DefaultSignVersion 。
}

// BuildAuthorizationHeader 返回用于 HTTP 的 Authorization 头的值。
// Version 为 0 时省略 Version 部分； AuthScheme 为空时使用 DefaultAuthScheme 。
func BuildAuthorizationHeader(auth Authorization) string {
	scheme := auth.AuthScheme
	if scheme == "" {
		scheme = DefaultAuthScheme
	}

	res := fmt.Sprintf("%s Key=%s, Sign=%s, Timestamp=%d", scheme, auth.Key, auth.Sign, auth.Timestamp)
	if auth.Version != 0 {
		res += ", Version=" + strconv.Itoa(auth.Version)
	}
	return res
}

// ParseAuthorization 解析 Authorization 头的值，格式为：
//
//	Scheme Key=value_of_key, Sign=value_of_sign, Timestamp=unix_timestamp, Version=1
//
// 各 key-value 对的顺序不做要求，前后的空白被忽略。 authScheme 为空时使用 DefaultAuthScheme 。
func ParseAuthorization(value, authScheme string) (Authorization, error) {
	auth := Authorization{Version: DefaultSignVersion}
	if authScheme == "" {
		authScheme = DefaultAuthScheme
	}

	scheme, params, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || scheme != authScheme {
		return auth, fmt.Errorf("authorization scheme error")
	}
	auth.AuthScheme = scheme

	for _, part := range strings.Split(params, ",") {
		k, v, _ := strings.Cut(strings.TrimSpace(part), "=")

		switch k {
		case "Key":
			auth.Key = v

		case "Sign":
			auth.Sign = v

		case "Timestamp":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return auth, fmt.Errorf("authorization timestamp error: %w", err)
			}
			auth.Timestamp = ts

		case "Version":
			ver, err := strconv.Atoi(v)
			if err != nil {
				return auth, fmt.Errorf("authorization version error: %w", err)
			}
			auth.Version = ver
		}
	}

	if auth.Key == "" || auth.Sign == "" {
		return auth, fmt.Errorf("authorization key or sign missing")
	}
	return auth, nil
}

// ReadAuthorization 从请求中读取 Authorization 。优先读取 Authorization 头，没有时读取 URL 上的 ~auth 参数。
func ReadAuthorization(r *http.Request, authScheme string) (Authorization, error) {
	headers := r.Header.Values(HttpHeaderAuthorization)
	switch len(headers) {
	case 0:
		v := r.URL.Query().Get(QueryAuth)
		if v == "" {
			return Authorization{}, fmt.Errorf("missing the Authorization header")
		}
		return ParseAuthorization(v, authScheme)

	case 1:
		return ParseAuthorization(headers[0], authScheme)

	default:
		return Authorization{}, fmt.Errorf("more than one Authorization headers found")
	}
}

// HmacSha256 计算 hmac-sha256 ，返回小写的 HEX 格式。
func HmacSha256(secret, data []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Sign 基于请求的各部分计算签名。 body 仅对 POST 、 PUT 、 PATCH 请求有效。
func Sign(secret, method string, u *url.URL, contentType string, body []byte, timestamp int64) (string, error) {
	data, err := BuildDataToSign(method, u, contentType, body, timestamp)
	if err != nil {
		return "", err
	}
	return HmacSha256([]byte(secret), data), nil
}

// AppendSign 计算请求的签名，并将其赋值到请求的 Authorization 头。
// 请求的 body 被读取后，替换为可重读的 bytes.Reader 。
func AppendSign(r *http.Request, key, secret, authScheme string, timestamp int64) error {
	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(data))
		body = data
	}

	sign, err := Sign(secret, r.Method, r.URL, r.Header.Get(websvc.HttpHeaderContentType), body, timestamp)
	if err != nil {
		return err
	}

	r.Header.Set(HttpHeaderAuthorization, BuildAuthorizationHeader(Authorization{
		AuthScheme: authScheme,
		Key:        key,
		Sign:       sign,
		Timestamp:  timestamp,
		Version:    DefaultSignVersion,
	}))
	return nil
}

// BuildDataToSign 构建待签名串，各部分以换行符（\n）分隔，依次为：
//   - TIMESTAMP 与 Authorization 头的 Timestamp 一致。
//   - METHOD 如 GET/POST 。
//   - PATH 请求的路径，没有路径部分时使用“/”。
//   - QUERY 参数按名称的字节顺序稳定排序后，将值紧密拼接；没有值的参数以名称替代。 ~auth 参数不参与计算。
//   - BODY 仅 POST 、 PUT 、 PATCH 请求有此部分。表单的处理方式同 QUERY ； JSON 和 multipart 为原文。
//   - END 固定值，末尾没有换行。
func BuildDataToSign(method string, u *url.URL, contentType string, body []byte, timestamp int64) ([]byte, error) {
	method = strings.ToUpper(method)
	buf := new(bytes.Buffer)

	buf.WriteString(strconv.FormatInt(timestamp, 10))
	buf.WriteByte('\n')

	buf.WriteString(method)
	buf.WriteByte('\n')

	if u.Path == "" {
		buf.WriteByte('/')
	} else {
		buf.WriteString(u.Path)
	}
	buf.WriteByte('\n')

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	delete(query, QueryAuth)
	writeValues(buf, query)

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		ct := strings.ToLower(strings.TrimSpace(contentType))
		switch {
		case strings.HasPrefix(ct, websvc.ContentTypeForm):
			values, err := url.ParseQuery(string(body))
			if err != nil {
				return nil, fmt.Errorf("parse form body: %w", err)
			}
			writeValues(buf, values)

		case strings.HasPrefix(ct, websvc.ContentTypeJson), strings.HasPrefix(ct, websvc.ContentTypeMultipartForm):
			buf.Write(body)
			buf.WriteByte('\n')

		default:
			return nil, fmt.Errorf("unsupported Content-Type: %s", contentType)
		}
	}

	buf.WriteString("END")
	return buf.Bytes(), nil
}

func writeValues(buf *bytes.Buffer, values url.Values) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// 同名参数的值保持原顺序。
	for _, k := range keys {
		for _, v := range values[k] {
			if v == "" {
				buf.WriteString(k)
			} else {
				buf.WriteString(v)
			}
		}
	}
	buf.WriteByte('\n')
}

// hmacEqual 以固定耗时比较两个 HEX 格式的签名，不区分大小写。
func hmacEqual(expected, actual string) bool {
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(actual)))
}
