package core

import "context"

// Store 是缓存存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 选择结果缓存：同一用户/影片/上下文小时内的序列结果
//
// 实现：
//   - store.MemoryStore 实现此接口
//   - store.RedisStore 实现此接口
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// SegmentSource 是推理路径的只读数据源。
//
// 实现：
//   - store.Repository（gorm + sqlite）
type SegmentSource interface {
	// GetUserProfile 读取用户画像，不存在时返回 NOT_FOUND
	GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error)

	// GetMovieSegments 读取影片全部 (场景, 版本)，按 scene_index, variant_id 排序；
	// 影片不存在或没有任何片段时返回 NOT_FOUND
	GetMovieSegments(ctx context.Context, movieID int64) (*MovieSegments, error)
}
