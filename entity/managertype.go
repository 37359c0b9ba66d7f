package entity

// Manager依赖倒置

// RegistrySnapshot 车道登记表在某一步结束时发布的不可变快照
type RegistrySnapshot struct {
	Step      int32
	Vehicles  []VehicleView             // 未驶离屏幕的车辆
	Crossed   [ApproachCount]int32      // 各方向已通过停止线的车辆数
	Uncrossed [ApproachCount]ClassCount // 各方向尚未通过停止线的车辆数（按车型）
	Lanes     [ApproachCount][3]int32   // 各车道的车辆数（含已通过停止线、未驶离的车辆）
}

// 信号灯状态读取接口，车辆运动学只关心本方向是否为绿灯
type ISignalGetter interface {
	IsGreen(a Approach) bool
}

// entity/lane/manager.go的依赖倒置
type ILaneManager interface {
	// 登记一辆新到达的车辆（线程安全，下一步Prepare后生效）
	Enqueue(class VehicleClass, a Approach, lane int32, willTurn bool)

	Prepare()                     // 准备阶段：提交缓冲区中的新车辆
	Update(signals ISignalGetter) // 更新阶段：运动学推进
	Publish(step int32)           // 发布快照

	ResetStops(a Approach)         // 将方向a所有车辆的停车坐标重置为默认值
	Snapshot() *RegistrySnapshot   // 最近一次发布的快照（任意goroutine可读）
	Crossed() [ApproachCount]int32 // 各方向已通过停止线的车辆数
	LaneCrossed() [ApproachCount][3]int32
}

// entity/junction/manager.go的依赖倒置
type IJunctionManager interface {
	ISignalGetter

	Prepare() // 准备阶段：应用缓冲区中的信控命令
	Update()  // 更新阶段：计时器递减与相位切换
	Decide()  // 决策阶段：信控策略读取检测结果并写入命令缓冲区

	Strategy() Strategy
	Current() Approach                  // 当前绿灯/黄灯方向
	Next() Approach                     // 下一个绿灯方向
	ActiveRemaining() int32             // 当前方向剩余的绿灯或黄灯时间
	Signals() [ApproachCount]SignalView // 信号灯快照
}

// 渲染端接口，只接收只读快照
type IRenderSink interface {
	Render(frame Frame)
}
