// Package logsetup 提供一组预定义的 [websvc.LogSetup] ，以便快速实现 [websvc.ApiLogger] 。
package logsetup

import (
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"github.com/cmstar/go-websvc"
)

// Default 返回一个包含常用步骤的 [websvc.LogSetupPipeline] ：
// IP 、 URL 、 RequestID 、 Service 、 Params 、 Files 、 Error 。
func Default() websvc.LogSetupPipeline {
	return websvc.NewLogSetupPipeline(IP, URL, RequestID, Service, Params, Files, Error)
}

// IP 输出发起 HTTP 请求的客户端 IP 地址。
//
// 输出字段为： IP 。
//
// 这是一个单例。
var IP = ip{}

type ip struct{}

var _ websvc.LogSetup = (*ip)(nil)

func (ip) Setup(state *websvc.ApiState) {
	state.LogMessage = append(state.LogMessage, "IP", state.UserHost)
}

// URL 输出请求的完整 URL 。
//
// 输出字段为： URL 。
//
// 这是一个单例。
var URL = url{}

type url struct{}

var _ websvc.LogSetup = (*url)(nil)

func (url) Setup(state *websvc.ApiState) {
	state.LogMessage = append(state.LogMessage, "URL", state.RawRequest.RequestURI)
}

// RequestID 输出请求的标识。
//
// 输出字段为： RequestID 。
//
// 这是一个单例。
var RequestID = requestID{}

type requestID struct{}

var _ websvc.LogSetup = (*requestID)(nil)

func (requestID) Setup(state *websvc.ApiState) {
	state.LogMessage = append(state.LogMessage, "RequestID", state.RequestID)
}

// Service 输出请求的服务名称、 HTTP 方法和处理结果。
//
// 输出字段为： Service/Method/Result 。
//
// 这是一个单例。
var Service = service{}

type service struct{}

var _ websvc.LogSetup = (*service)(nil)

func (service) Setup(state *websvc.ApiState) {
	method := ""
	if state.RawRequest != nil {
		method = state.RawRequest.Method
	}

	state.LogMessage = append(state.LogMessage,
		"Service", state.Name,
		"Method", method,
		"Result", state.Result.String(),
	)
}

// Params 输出参数校验的结果，仅在有缺失或非法的参数时输出。
// 不输出参数的值，以免日志中出现敏感数据。
//
// 输出字段为： Missing/Invalid ，值为逗号分隔的参数名称。
//
// 这是一个单例。
var Params = params{}

type params struct{}

var _ websvc.LogSetup = (*params)(nil)

func (params) Setup(state *websvc.ApiState) {
	if len(state.Missing) > 0 {
		state.LogMessage = append(state.LogMessage, "Missing", strings.Join(state.Missing, ","))
	}
	if len(state.Invalid) > 0 {
		state.LogMessage = append(state.LogMessage, "Invalid", strings.Join(state.Invalid, ","))
	}
}

// Error 根据当前的错误信息，判断错误的级别，并输出错误的描述信息。
//
// 输出字段为： ErrorType/Error 。
//
// 这是一个单例。
var Error = err{}

type err struct{}

var _ websvc.LogSetup = (*err)(nil)

func (err) Setup(state *websvc.ApiState) {
	if state.Error == nil {
		return
	}

	logLevel, errTypeName, errDescription := websvc.DescribeError(state.Error)

	state.LogLevel = logLevel
	state.LogMessage = append(state.LogMessage,
		"ErrorType", errTypeName,
		"Error", errDescription,
	)
}

// Files 输出 multipart 请求中的文件概要信息。
// 对 multipart/form-data 格式的请求， [websvc.ServicesManager] 在读取参数时已解析 [http.Request.MultipartForm] 。
//
// 依次输出每个文件的（X 是文件的索引）：
//   - FileX 文件名。
//   - LengthX 文件长度。
//   - ContentTypeX 文件的 Content-Type 。
//
// 不会输出非文件的部分。
//
// 这是一个单例。
var Files = files{}

type files struct{}

var _ websvc.LogSetup = (*files)(nil)

func (files) Setup(state *websvc.ApiState) {
	req := state.RawRequest
	if req == nil || req.MultipartForm == nil {
		return
	}

	for i, f := range sortedFileHeaders(req.MultipartForm) {
		tag := strconv.Itoa(i)
		state.LogMessage = append(state.LogMessage,
			"File"+tag, f.Filename,
			"Length"+tag, f.Size,
		)

		if header, ok := f.Header[websvc.HttpHeaderContentType]; ok && len(header) > 0 {
			state.LogMessage = append(state.LogMessage, "ContentType"+tag, header[0])
		}
	}
}

// 每个部分的头包括 Content-Disposition: form-data; name="photo"; filename="photo.jpeg"
// form.File 使用的是 name ，这里按其排序，解决 map 输出顺序不稳定的问题，以便获得稳定的日志。
func sortedFileHeaders(form *multipart.Form) []*multipart.FileHeader {
	if len(form.File) == 0 {
		return nil
	}

	keys := make([]string, 0, len(form.File))
	for k := range form.File {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var res []*multipart.FileHeader
	for _, k := range keys {
		res = append(res, form.File[k]...)
	}
	return res
}
