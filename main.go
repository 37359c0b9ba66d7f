package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"strings"

	"git.fiblab.net/sim/syncer/v3"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/storage"
	"github.com/tsinghua-fib-lab/dynlight-sim/task"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

var (
	// 分布式模式syncer地址，如果设置为空则激活独立部署模式
	syncerAddr = flag.String("syncer", "", "syncer address (empty means standalone mode), e.g. http://localhost:53001")
	// 模拟任务名
	job = flag.String("job", "job0", "the name of the whole simulation task")
	// 本程序监听的gRPC地址，为空则不提供RPC服务
	grpcAddr = flag.String("listen", "", "gRPC listening address (empty means no rpc), e.g. :51102")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path (empty means built-in defaults)")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 依次运行的信控策略
	strategies = flag.String("strategy", "Antenna", "comma separated strategies to run (Antenna, Camera, PIR) or all")
	// 运行结束后输出对比表
	plot = flag.Bool("plot", false, "print the comparison table of saved results")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "dynlight")
)

// loadConfig 读取配置，未指定文件时使用内置默认值
func loadConfig() config.Config {
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	}
	c, err := config.Load(file)
	if err != nil {
		log.Panicf("config err: %v", err)
	}
	return c
}

func parseStrategies(s string) []entity.Strategy {
	if strings.EqualFold(s, "all") {
		return entity.Strategies
	}
	res := make([]entity.Strategy, 0)
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		kind, err := entity.ParseStrategy(name)
		if err != nil {
			log.Panicf("%v", err)
		}
		res = append(res, kind)
	}
	return res
}

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	c := loadConfig()
	log.Infof("%+v", c)
	kinds := parseStrategies(*strategies)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store storage.IStore = storage.NewMemoryStore()
	if c.Output.File != "" {
		store = storage.NewJSONFileStore(c.Output.File)
	}
	extra := make([]storage.ISink, 0)
	if c.Output.URI != "" {
		mongo := storage.NewMongoStore(c.Output)
		defer mongo.Close(context.Background())
		extra = append(extra, mongo)
	}

	var sidecar *syncer.Sidecar
	if *grpcAddr != "" {
		sidecar = syncer.NewSidecar(task.SelfName, *grpcAddr, *syncerAddr)
	}
	session := task.NewSession(*job, c, store, extra, sidecar)
	defer session.Close()
	for _, kind := range kinds {
		if _, err := session.StartStrategy(ctx, kind); err != nil {
			log.Errorf("%v run failed: %v", kind, err)
			break
		}
	}
	if *plot {
		if err := session.RequestPlot(ctx, os.Stdout); err != nil {
			log.Errorf("plot failed: %v", err)
		}
	}
}
