/*
signauth 提供基于 HMAC-SHA256 的请求签名，用于 websvc 服务的授权校验。

每个调用者被分配一组配对的 key-secret ， key 标识调用者， secret 用于生成签名。签名放在 Authorization 头：

	Authorization: WEBSVC-AUTH Key={key}, Sign={sign}, Timestamp={timestamp}, Version=1

不便定制请求头时，可将 Authorization 头的值放在 URL 的 ~auth 参数上（需 URL 编码），此参数不参与签名计算。
同时给定时只读取请求头。

待签名串的格式见 BuildDataToSign ，例如：

	POST http://temp.org/my/path?a&c=3&b=2&z=4&X=%E4%B8%AD%E6%96%87&a=1&b=
	Content-Type: application/x-www-form-urlencoded

	p1=11&p3=33&p2=22

对应的待签名串为：

	1662439087
	POST
	/my/path
	中文a12b34
	112233
	END

服务端在参数校验通过后才校验签名，校验使用 websvc.ApiState.RequestBody 中已读取的 body 。
multipart/form-data 的 body 以原文参与签名， boundary 随 body 一并被签名覆盖。
*/
package signauth
