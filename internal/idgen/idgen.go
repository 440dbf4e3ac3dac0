// Package idgen 生成仪表板、组件与导入记录的唯一 ID
package idgen

import (
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet 组件 / 记录 ID 随机部分使用的字符集
var Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length 随机部分长度（不含前缀）
var Length = 10

// Dashboard 仪表板 ID：d_ + UUID 前 8 位
func Dashboard() string {
	return fmt.Sprintf("d_%s", uuid.New().String()[:8])
}

// Widget 组件 ID
func Widget() string {
	return withPrefix("w_")
}

// History 导入记录 ID
func History() string {
	return withPrefix("h_")
}

func withPrefix(prefix string) string {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		// 随机源不可用时退回 UUID
		return prefix + uuid.New().String()[:Length]
	}
	return prefix + id
}
