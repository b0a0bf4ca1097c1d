// 手动补算提交记录内容指纹脚本
//
// contentHash 在创建时计算一次，正常流程不会缺失。历史数据导入
// 或早期版本写入的记录可能没有指纹，此脚本为这些行补算一次。
//
// 用法: go run scripts/backfill_hashes.go
package main

import (
	"log"
	"os"

	"solvelab_backend/internal/config"
	"solvelab_backend/internal/model"
	"solvelab_backend/internal/util"
	"solvelab_backend/pkg/database"
	"solvelab_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var subs []model.ProblemSubmission
	if err := db.Where("content_hash = ? OR content_hash IS NULL", "").Find(&subs).Error; err != nil {
		log.Fatalf("查询失败: %v", err)
	}

	log.Printf("待补算记录: %d 条", len(subs))

	updated := 0
	for i := range subs {
		sub := &subs[i]

		payload := ""
		switch sub.InputType {
		case model.InputText:
			payload = sub.TextContent
		case model.InputImage:
			payload = sub.ImageData
		case model.InputVoice:
			payload = sub.VoiceURL
		}
		if payload == "" {
			log.Printf("跳过 %s: 内容为空", sub.ID)
			continue
		}

		hash := util.GenerateContentHash(payload)
		if err := db.Model(sub).Update("content_hash", hash).Error; err != nil {
			log.Printf("更新 %s 失败: %v", sub.ID, err)
			continue
		}
		updated++
	}

	log.Printf("完成！共更新 %d 条", updated)
}
