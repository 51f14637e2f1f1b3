package websvc

// ServiceSetup 用于向 ApiEngine 上的 ServicesManager 注册服务。
type ServiceSetup struct {
	engine  *ApiEngine
	manager *ServicesManager
}

// AddService 同 ServicesManager.AddService 。
// 返回 ServiceSetup 实例自身，以便编码形成流式调用。
func (setup ServiceSetup) AddService(services ...Service) ServiceSetup {
	for _, s := range services {
		setup.manager.AddService(s)
	}
	return setup
}

// Manager 返回对应的 ServicesManager 。
func (setup ServiceSetup) Manager() *ServicesManager {
	return setup.manager
}

// Engine 返回对应的 ApiEngine 。
func (setup ServiceSetup) Engine() *ApiEngine {
	return setup.engine
}
