package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
)

// 测试数据生成器：创建演示用的习惯与最近 90 天的打卡记录
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	if err := db.BootstrapRootUser("admin", "admin123"); err != nil {
		log.Fatal("创建测试用户失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	loc := cfg.Location()
	habitSvc := service.NewHabitService(db.DB)
	actionSvc := service.NewActionService(db.DB, loc)

	seeds := []struct {
		input service.HabitInput
		odds  float64 // 每天打卡概率
	}{
		{service.HabitInput{Name: "晨跑", Color: db.ColorGreen, Notes: "每天 **5 公里**"}, 0.8},
		{service.HabitInput{Name: "冥想", Color: db.ColorBlue, Notes: "晚间 10 分钟"}, 0.6},
		{service.HabitInput{Name: "阅读", Color: db.ColorYellow}, 0.5},
		{service.HabitInput{Name: "写日记", Color: db.ColorPink}, 0.3},
		{service.HabitInput{Name: "早睡", Color: db.ColorCyan}, 0.0},
	}

	now := time.Now().In(loc)
	for _, seed := range seeds {
		habit, err := habitSvc.Create(seed.input)
		if err != nil {
			log.Fatal("创建习惯失败:", err)
		}

		for i := 0; i < 90; i++ {
			if rand.Float64() >= seed.odds {
				continue
			}
			at := now.AddDate(0, 0, -i)
			if err := actionSvc.Toggle(habit.ID, true, at); err != nil {
				log.Fatal("打卡失败:", err)
			}
		}
	}

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: admin (密码: admin123)")
	fmt.Printf("习惯: %d 个，打卡覆盖最近 90 天\n", len(seeds))
}
