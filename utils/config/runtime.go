package config

// RuntimeConfig 运行时配置
// 功能：存储一次运行所用的配置，以及由配置派生出的常用取值
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置

	FramesPerTurn int32 // 转弯所需帧数 = 90 / rotation_step
}

// NewRuntimeConfig 根据已校验的配置初始化运行时配置
func NewRuntimeConfig(config Config) *RuntimeConfig {
	return &RuntimeConfig{
		All:           config,
		C:             config.Control,
		FramesPerTurn: int32(90 / config.Vehicle.RotationStep),
	}
}
