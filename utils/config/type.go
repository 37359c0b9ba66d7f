package config

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：控制仿真的时间范围与步长，信号灯计时器以步为单位递减
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数，即仿真时长simTime
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
// 说明：包含时间控制、调度模式、运动学子步数、随机种子与心跳间隔
type Control struct {
	Step     ControlStep `yaml:"step"`
	Realtime bool        `yaml:"realtime,omitempty"` // 是否按墙钟时间运行（默认虚拟时间事件循环）
	Substeps int32       `yaml:"substeps"`           // 每步内的运动学帧数
	Seed     uint64      `yaml:"seed"`               // 随机数种子

	HeartbeatInterval int32 `yaml:"heartbeat_interval"` // 心跳日志间隔步数
}

// VehicleClass 单个车型的常量属性
type VehicleClass struct {
	Speed     float64 `yaml:"speed"`      // 速度（像素/帧）
	CrossTime float64 `yaml:"cross_time"` // 平均通过路口时间（秒）
	Length    float64 `yaml:"length"`     // 车长（像素）
	Width     float64 `yaml:"width"`      // 车宽（像素）
}

// Vehicle 车辆运动学配置
// 功能：定义车型属性与跟驰、转弯参数
type Vehicle struct {
	Car          VehicleClass `yaml:"car"`
	Bus          VehicleClass `yaml:"bus"`
	Truck        VehicleClass `yaml:"truck"`
	Bike         VehicleClass `yaml:"bike"`
	Gap          float64      `yaml:"gap"`           // 前后车最小间距（像素）
	RotationStep float64      `yaml:"rotation_step"` // 转弯时每帧旋转角度（度）
	ExitMargin   float64      `yaml:"exit_margin"`   // 离开屏幕判定的外扩边距（像素）
}

// Classes 按车型枚举顺序（car bus truck bike）返回车型属性
func (v Vehicle) Classes() []VehicleClass {
	return []VehicleClass{v.Car, v.Bus, v.Truck, v.Bike}
}

// Arrival 车辆生成配置
type Arrival struct {
	Period          float64   `yaml:"period"`            // 生成周期（秒）
	Preset          string    `yaml:"preset,omitempty"`  // 流量预设 light|medium|heavy，非空时覆盖weights
	Weights         []float64 `yaml:"weights,omitempty"` // 四个方向的累积权重上界
	TurnProbability float64   `yaml:"turn_probability"`  // 2号车道车辆转弯的概率
}

// Signal 信号灯公共配置
type Signal struct {
	DefaultRed int32 `yaml:"default_red"` // 默认红灯时长
	Yellow     int32 `yaml:"yellow"`      // 黄灯时长
}

// Zone 检测区域矩形（屏幕坐标，左上角+宽高）
type Zone struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Antenna 周期占有率轮询策略配置
type Antenna struct {
	MaxGreen       int32  `yaml:"max_green"`       // 最大绿灯时长，也是默认绿灯时长
	MinGreen       int32  `yaml:"min_green"`       // 最短绿灯驻留时间
	SampleInterval int32  `yaml:"sample_interval"` // 检测器采样间隔（步）
	Zones          []Zone `yaml:"zones"`           // 按方向顺序 West North East South
}

// Camera 按比例分配绿灯策略配置
type Camera struct {
	DefaultGreen     int32 `yaml:"default_green"`
	MinGreen         int32 `yaml:"min_green"`
	MaxGreen         int32 `yaml:"max_green"`
	Lookahead        int32 `yaml:"lookahead"`          // 下一方向红灯剩余该值时启动计数
	LanesPerApproach int32 `yaml:"lanes_per_approach"` // 公式分母中的车道数
}

// PIR 主从顺序检测策略配置
type PIR struct {
	MaxGreen int32  `yaml:"max_green"`
	MinGreen int32  `yaml:"min_green"`
	Zones    []Zone `yaml:"zones"`
}

// Output 仿真结果输出配置
type Output struct {
	File string `yaml:"file,omitempty"` // JSON结果文件，为空则不写文件
	URI  string `yaml:"uri,omitempty"`  // MongoDB连接字符串，为空则不写数据库
	DB   string `yaml:"db,omitempty"`
	Col  string `yaml:"col,omitempty"`
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：未出现在YAML中的字段保留Default()中的取值
type Config struct {
	Control Control `yaml:"control"`
	Vehicle Vehicle `yaml:"vehicle"`
	Arrival Arrival `yaml:"arrival"`
	Signal  Signal  `yaml:"signal"`
	Antenna Antenna `yaml:"antenna"`
	Camera  Camera  `yaml:"camera"`
	PIR     PIR     `yaml:"pir"`
	Output  Output  `yaml:"output"`
}
