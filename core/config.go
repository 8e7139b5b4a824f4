package core

// SelectorConfig 是序列选择相关的配置接口，用于提供默认值。
type SelectorConfig interface {
	// DefaultTopN 返回候选版本列表的默认长度
	DefaultTopN() int

	// DefaultDeviceType 返回请求未携带设备类型时的默认值
	DefaultDeviceType() string

	// CacheTTLSeconds 返回结果缓存的过期时间（秒），0 表示不缓存
	CacheTTLSeconds() int
}

// DefaultSelectorConfig 是默认的选择配置实现。
type DefaultSelectorConfig struct{}

func (c *DefaultSelectorConfig) DefaultTopN() int {
	return 3
}

func (c *DefaultSelectorConfig) DefaultDeviceType() string {
	return DefaultDeviceType
}

func (c *DefaultSelectorConfig) CacheTTLSeconds() int {
	return 300
}
