package model

import (
	"context"

	"github.com/rushteam/scenekit/feature"
)

// Classifier 是掉线预测的最小抽象：输入按冻结列排列的矩阵，输出每行的掉线概率。
// 具体实现可以是本地模型（LogisticModel）或远程 RPC（RPCModel）。
// 输入的列必须与训练时的列一致（按位置对应）。
type Classifier interface {
	Name() string
	PredictProba(ctx context.Context, m *feature.Matrix) ([]float64, error)
}

// 模型类型，写在 model.json 的 type 字段
const (
	TypeLogistic = "logistic"
	TypeRPC      = "rpc"
)
