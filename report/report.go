package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/storage"
	"gonum.org/v1/gonum/floats/scalar"
)

// Ratio 百分比，分母为0时无定义
type Ratio struct {
	Value   float64
	Defined bool
}

func (r Ratio) String() string {
	if !r.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// Efficiency 相对差异百分比 round(|a-b|/b*100, 2)
func Efficiency(a, b float64) Ratio {
	if b == 0 {
		return Ratio{}
	}
	return Ratio{Value: scalar.Round(math.Abs(a-b)/b*100, 2), Defined: true}
}

// Row 一个策略的结果，Present为false时表示没有该策略的数据
type Row struct {
	Strategy string
	Result   storage.Result
	Present  bool
}

// Comparison 三种策略的对比
type Comparison struct {
	Rows []Row // Antenna Camera PIR

	AWTVsCamera  Ratio
	AWTVsPIR     Ratio
	CarsVsCamera Ratio
	CarsVsPIR    Ratio
}

// Compare 读取全部结果并计算Antenna相对Camera、PIR的差异
// 说明：缺少任一方的数据时对应差异无定义
func Compare(ctx context.Context, store storage.IStore) (Comparison, error) {
	all, err := store.All(ctx)
	if err != nil {
		return Comparison{}, err
	}
	c := Comparison{
		Rows: lo.Map(entity.Strategies, func(s entity.Strategy, _ int) Row {
			r, ok := all[s.String()]
			return Row{Strategy: s.String(), Result: r, Present: ok}
		}),
	}
	ant, okAnt := all[entity.Antenna.String()]
	if cam, ok := all[entity.Camera.String()]; ok && okAnt {
		c.AWTVsCamera = Efficiency(ant.AverageWaitTime, cam.AverageWaitTime)
		c.CarsVsCamera = Efficiency(float64(ant.CarsServiced), float64(cam.CarsServiced))
	}
	if pir, ok := all[entity.PIR.String()]; ok && okAnt {
		c.AWTVsPIR = Efficiency(ant.AverageWaitTime, pir.AverageWaitTime)
		c.CarsVsPIR = Efficiency(float64(ant.CarsServiced), float64(pir.CarsServiced))
	}
	return c, nil
}

// Write 输出对齐的文本表格
func Write(w io.Writer, c Comparison) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Strategy\tAWT (min)\tCars Serviced\tEast-West\tNorth-South\t")
	for _, r := range c.Rows {
		if !r.Present {
			fmt.Fprintf(tw, "%s\tno data\tno data\t\t\t\n", r.Strategy)
			continue
		}
		ew, ns := "", ""
		if r.Strategy == entity.Antenna.String() {
			ew, ns = fmt.Sprint(r.Result.EastWest), fmt.Sprint(r.Result.NorthSouth)
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%d\t%s\t%s\t\n", r.Strategy, r.Result.AverageWaitTime, r.Result.CarsServiced, ew, ns)
	}
	fmt.Fprintln(tw, "\t\t\t\t\t")
	fmt.Fprintln(tw, "Efficiency (%)\tAWT\tCars Serviced\t\t\t")
	fmt.Fprintf(tw, "Antenna vs Camera\t%v\t%v\t\t\t\n", c.AWTVsCamera, c.CarsVsCamera)
	fmt.Fprintf(tw, "Antenna vs PIR\t%v\t%v\t\t\t\n", c.AWTVsPIR, c.CarsVsPIR)
	return tw.Flush()
}
