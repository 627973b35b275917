package generator

import "math/rand"

// twNames are common Taiwanese given names. One is picked per article so
// generated protagonists vary across a batch.
var twNames = []string{
	"志豪", "怡君", "建宏", "淑芬", "俊傑", "雅琪", "宗翰", "佳穎",
	"柏翰", "詩涵", "冠廷", "欣怡", "家豪", "雅雯", "承恩", "筱婷",
	"宏仁", "美玲", "彥廷", "思妤", "育誠", "佩珊", "哲瑋", "曉萱",
	"信宏", "惠婷", "威廷", "雅芳", "嘉豪", "靜宜",
}

// stock placeholder names the prompt explicitly forbids.
const forbiddenNames = "「小明」「小華」「雅婷」「瑪莉亞」「約翰」「大衛」"

func randomName(rng *rand.Rand) string {
	return twNames[rng.Intn(len(twNames))]
}
