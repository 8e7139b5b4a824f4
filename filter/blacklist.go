package filter

import (
	"context"
	"strconv"

	"github.com/rushteam/scenekit/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉已下架或被用户屏蔽的版本。
type BlacklistFilter struct {
	// VariantIDs 是内存中的黑名单版本 ID 列表
	VariantIDs []int64

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的全局黑名单 key（可选）
	Key string

	// UserKeyPrefix 是用户级屏蔽列表的 key 前缀（可选），实际 key 为 {UserKeyPrefix}:{UserID}
	UserKeyPrefix string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单版本 ID 列表，key 不存在时返回空列表
	GetBlacklist(ctx context.Context, key string) ([]int64, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(variantIDs []int64, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &BlacklistFilter{
		VariantIDs: variantIDs,
		Store:      store,
		Key:        key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}
	id := c.Segment.Variant.VariantID

	for _, v := range f.VariantIDs {
		if v == id {
			return true, nil
		}
	}

	if f.Store == nil {
		return false, nil
	}
	if f.Key != "" {
		blocked, err := f.contains(ctx, f.Key, id)
		if err != nil || blocked {
			return blocked, err
		}
	}
	if f.UserKeyPrefix != "" && rctx != nil && rctx.User != nil {
		key := f.UserKeyPrefix + ":" + strconv.FormatInt(rctx.User.UserID, 10)
		return f.contains(ctx, key, id)
	}
	return false, nil
}

func (f *BlacklistFilter) contains(ctx context.Context, key string, id int64) (bool, error) {
	ids, err := f.Store.GetBlacklist(ctx, key)
	if err != nil {
		return false, err
	}
	for _, v := range ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}
