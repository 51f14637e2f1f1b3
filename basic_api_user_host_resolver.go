package websvc

import (
	"strings"
)

// ApiUserHostResolver 用于获取发起 HTTP 请求的客户端 IP 地址。
// 一个请求可能经过多次代理转发，原始地址通常需要从特定 HTTP 头获取，比如 X-Forwarded-For 。
type ApiUserHostResolver interface {
	// FillUserHost 获取发起 HTTP 请求的客户端 IP 地址，并填入 ApiState.UserHost 。
	FillUserHost(state *ApiState)
}

// ApiUserHostResolverFunc 将函数包装为 ApiUserHostResolver 。
type ApiUserHostResolverFunc func(state *ApiState)

// FillUserHost implements ApiUserHostResolver.FillUserHost.
func (f ApiUserHostResolverFunc) FillUserHost(state *ApiState) {
	f(state)
}

// basicApiUserHostResolver 提供 ApiUserHostResolver 的标准实现。
type basicApiUserHostResolver struct {
	trustForwardedFor bool
}

// NewBasicApiUserHostResolver 返回一个预定义的 ApiUserHostResolver 的标准实现。
// trustForwardedFor 为 true 时，优先使用 X-Forwarded-For 头的第一个地址，适用于服务部署在反向代理之后的情况。
func NewBasicApiUserHostResolver(trustForwardedFor bool) ApiUserHostResolver {
	return &basicApiUserHostResolver{trustForwardedFor}
}

func (r *basicApiUserHostResolver) FillUserHost(state *ApiState) {
	var ip string
	if r.trustForwardedFor {
		ip = strings.TrimSpace(state.RawRequest.Header.Get(HttpHeaderForwardedFor))
	}
	if ip == "" {
		ip = state.RawRequest.RemoteAddr
	}
	state.UserHost = normalizeUserHost(ip)
}

// normalizeUserHost 从“IP:PORT”、“[IPv6]:PORT”或 X-Forwarded-For 头的值中取得客户端 IP 。
func normalizeUserHost(ip string) string {
	// X-Forwarded-For 头给的第一个 IP 是客户端原始 IP 。
	ip, _, _ = strings.Cut(ip, ",")
	ip = strings.TrimSpace(ip)

	if strings.HasPrefix(ip, "[") {
		// [IPv6]:PORT
		if end := strings.IndexByte(ip, ']'); end > 0 {
			return ip[1:end]
		}
		return ip
	}

	// 只有一个冒号的是 IPv4:PORT ，多个冒号的是不带端口的 IPv6 。
	if strings.Count(ip, ":") == 1 {
		if colonIdx := strings.IndexByte(ip, ':'); colonIdx > 0 {
			ip = ip[:colonIdx]
		}
	}
	return ip
}
