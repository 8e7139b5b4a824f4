package train

import (
	"math"
	"math/rand/v2"
	"sort"
)

// byClass 按标签分组行下标，组内按种子打乱
func byClass(y []int, seed uint64) [][]int {
	groups := make(map[int][]int)
	for i, v := range y {
		groups[v] = append(groups[v], i)
	}
	labels := make([]int, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	rng := rand.New(rand.NewPCG(seed, 0))
	out := make([][]int, 0, len(labels))
	for _, l := range labels {
		idx := groups[l]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		out = append(out, idx)
	}
	return out
}

// StratifiedSplit 按类别分层切分训练/测试集，每个类别按 testRatio 取测试样本
// （四舍五入，且至少给训练集留一个）。返回的下标升序。
func StratifiedSplit(y []int, testRatio float64, seed uint64) (trainIdx, testIdx []int) {
	for _, idx := range byClass(y, seed) {
		nTest := int(math.Round(float64(len(idx)) * testRatio))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		if nTest < 0 {
			nTest = 0
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return trainIdx, testIdx
}

// StratifiedFolds 将样本分层分配到 k 折，每折内下标升序。
func StratifiedFolds(y []int, k int, seed uint64) [][]int {
	folds := make([][]int, k)
	pos := 0
	for _, idx := range byClass(y, seed) {
		for _, i := range idx {
			folds[pos%k] = append(folds[pos%k], i)
			pos++
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}

// complement 返回 [0, n) 中不在 idx 里的下标
func complement(n int, idx []int) []int {
	skip := make(map[int]bool, len(idx))
	for _, i := range idx {
		skip[i] = true
	}
	out := make([]int, 0, n-len(idx))
	for i := 0; i < n; i++ {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}

func pick(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
