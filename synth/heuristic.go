// Package synth 生成可学习的合成数据：用户、影片、场景版本与观看记录。
//
// 观看记录由人格-内容亲和度挑选版本，并按掉线风险做伯努利抽样，
// 这是分类器需要逼近的真实规律。
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/rushteam/scenekit/core"
)

// Affinity 计算用户人格与版本内容的亲和度
//
//	openness·(dialogue + tone)
//	+ conscientiousness·(10 − |pacing − 5|)
//	+ extraversion·(intensity + action)
//	+ agreeableness·(character + dialogue)
//	+ (10 − neuroticism)·(10 − |tone − 5|)
func Affinity(t core.Traits, v core.SceneVariant) float64 {
	return t.Openness*(v.DialogueDensity+v.EmotionalTone) +
		t.Conscientiousness*(10-math.Abs(v.PacingScore-5)) +
		t.Extraversion*(v.IntensityScore+v.ActionLevel) +
		t.Agreeableness*(v.CharacterFocus+v.DialogueDensity) +
		(10-t.Neuroticism)*(10-math.Abs(v.EmotionalTone-5))
}

// DropRisk 掉线风险 = neuroticism·0.1 + |tone − 5|·0.05 + intensity·0.05，不做截断
func DropRisk(neuroticism float64, v core.SceneVariant) float64 {
	return neuroticism*0.1 + math.Abs(v.EmotionalTone-5)*0.05 + v.IntensityScore*0.05
}

// BestVariant 返回亲和度最高的版本下标，并列时取靠前者；空列表返回 -1
func BestVariant(t core.Traits, variants []core.SceneVariant) int {
	best, bestScore := -1, math.Inf(-1)
	for i, v := range variants {
		if s := Affinity(t, v); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// Bernoulli 以概率 p 返回 true（rng.Float64() < p）
func Bernoulli(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

// WatchDuration 掉线时观看一半，否则观看 U(0.8, 1.0) 比例，截断为整数秒
func WatchDuration(rng *rand.Rand, duration int, dropped bool) int {
	ratio := 0.5
	if !dropped {
		ratio = uniform(rng, 0.8, 1.0)
	}
	return int(float64(duration) * ratio)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// intBetween 闭区间 [lo, hi] 上的均匀整数
func intBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// sample 无放回抽取 k 个元素，保持抽取顺序
func sample(rng *rand.Rand, pool []string, k int) []string {
	idx := rng.Perm(len(pool))[:k]
	out := make([]string, k)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}
