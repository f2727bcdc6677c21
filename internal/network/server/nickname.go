package server

import "math/rand/v2"

// 昵称词库
var (
	adjectives = []string{
		"机智的", "大胆的", "悠闲的", "执着的", "幸运的",
		"神速的", "沉默的", "狡猾的", "倔强的", "乐观的",
		"冷静的", "热情的", "谨慎的", "飘逸的", "顽皮的",
	}

	nouns = []string{
		"章鱼", "海獭", "狸猫", "鹦鹉", "鲸鱼",
		"刺猬", "穿山甲", "信天翁", "小浣熊", "树懒",
		"夜莺", "角马", "雪豹", "蜜獾", "貂",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	adj := adjectives[rand.IntN(len(adjectives))]
	noun := nouns[rand.IntN(len(nouns))]
	return adj + noun
}
