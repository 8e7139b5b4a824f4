package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pkg/logger"
)

// Repository 是关系库的读写入口：推理路径读取用户与影片片段，
// 训练路径抽取联表观看记录，合成路径批量写入。
type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ core.SegmentSource = (*Repository)(nil)

// NewRepository 创建基于 gorm 的片段仓库
func NewRepository(db *gorm.DB, baseLog *logger.Logger) *Repository {
	return &Repository{db: db, log: baseLog.With("repo", "Repository")}
}

// DB 返回底层连接
func (r *Repository) DB() *gorm.DB { return r.db }

// GetUserProfile 读取用户画像，不存在时返回 NOT_FOUND
func (r *Repository) GetUserProfile(ctx context.Context, userID int64) (*core.UserProfile, error) {
	var row UserRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.NotFoundf(core.ModuleStore, "user %d not found", userID)
		}
		return nil, core.Internal(core.ModuleStore, "load user", err)
	}
	return row.toProfile(), nil
}

type segmentRow struct {
	SceneID         int64
	MovieID         int64
	SceneIndex      int
	VariantID       int64
	VariantName     string
	FilePath        string
	PacingScore     float64
	IntensityScore  float64
	DialogueDensity float64
	ActionLevel     float64
	CharacterFocus  float64
	EmotionalTone   float64
	Duration        int
}

// GetMovieSegments 读取影片全部 (场景, 版本)，按 scene_index, variant_id 排序。
// 影片不存在或没有任何片段时返回 NOT_FOUND。
func (r *Repository) GetMovieSegments(ctx context.Context, movieID int64) (*core.MovieSegments, error) {
	var movie MovieRow
	err := r.db.WithContext(ctx).Where("movie_id = ?", movieID).First(&movie).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.NotFoundf(core.ModuleStore, "movie %d not found", movieID)
		}
		return nil, core.Internal(core.ModuleStore, "load movie", err)
	}

	var rows []segmentRow
	err = r.db.WithContext(ctx).
		Table("Scene AS s").
		Select(`s.scene_id, s.movie_id, s.scene_index,
			v.variant_id, v.variant_name, v.file_path, v.pacing_score, v.intensity_score,
			v.dialogue_density, v.action_level, v.character_focus, v.emotional_tone, v.duration`).
		Joins("JOIN SceneVariant AS v ON v.scene_id = s.scene_id").
		Where("s.movie_id = ?", movieID).
		Order("s.scene_index, v.variant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, core.Internal(core.ModuleStore, "load segments", err)
	}
	if len(rows) == 0 {
		return nil, core.NotFoundf(core.ModuleStore, "movie %d has no scene variants", movieID)
	}

	out := &core.MovieSegments{Movie: movie.toMovie(), Segments: make([]core.Segment, 0, len(rows))}
	for i := range rows {
		row := &rows[i]
		out.Segments = append(out.Segments, core.Segment{
			Scene: core.Scene{SceneID: row.SceneID, MovieID: row.MovieID, SceneIndex: row.SceneIndex},
			Variant: core.SceneVariant{
				VariantID:       row.VariantID,
				SceneID:         row.SceneID,
				Name:            row.VariantName,
				FilePath:        row.FilePath,
				PacingScore:     row.PacingScore,
				IntensityScore:  row.IntensityScore,
				DialogueDensity: row.DialogueDensity,
				ActionLevel:     row.ActionLevel,
				CharacterFocus:  row.CharacterFocus,
				EmotionalTone:   row.EmotionalTone,
				Duration:        row.Duration,
			},
		})
	}
	return out, nil
}

// ValidateMovie 检查声明的 scene_count 与场景记录数一致
func (r *Repository) ValidateMovie(ctx context.Context, movieID int64) error {
	var movie MovieRow
	if err := r.db.WithContext(ctx).Where("movie_id = ?", movieID).First(&movie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.NotFoundf(core.ModuleStore, "movie %d not found", movieID)
		}
		return core.Internal(core.ModuleStore, "load movie", err)
	}
	var scenes int64
	if err := r.db.WithContext(ctx).Model(&SceneRow{}).Where("movie_id = ?", movieID).Count(&scenes).Error; err != nil {
		return core.Internal(core.ModuleStore, "count scenes", err)
	}
	if int64(movie.SceneCount) != scenes {
		return core.Invalidf(core.ModuleStore, "movie %d declares %d scenes but has %d", movieID, movie.SceneCount, scenes)
	}
	return nil
}

type trainingScan struct {
	UserRow
	MovieTitle      string
	ReleaseYear     int
	MovieDuration   int
	MovieGenres     []string `gorm:"serializer:json"`
	MovieRating     string
	IMDBRating      *float64
	SceneCount      int
	SceneID         int64
	MovieID         int64
	SceneIndex      int
	VariantID       int64
	VariantName     string
	FilePath        string
	PacingScore     float64
	IntensityScore  float64
	DialogueDensity float64
	ActionLevel     float64
	CharacterFocus  float64
	EmotionalTone   float64
	VariantDuration int
	DeviceType      string
	StartTime       time.Time
	WatchDuration   int
	DroppedOff      bool
}

// TrainingRows 抽取训练用的联表记录（只保留 watch_duration > 0 的观看）
func (r *Repository) TrainingRows(ctx context.Context) ([]core.TrainingRow, error) {
	var scans []trainingScan
	err := r.db.WithContext(ctx).
		Table("SceneViewing AS sv").
		Select(`u.*,
			m.title AS movie_title, m.release_year, m.duration AS movie_duration,
			m.genres AS movie_genres, m.rating AS movie_rating, m.imdb_rating, m.scene_count,
			s.scene_id, s.movie_id, s.scene_index,
			v.variant_id, v.variant_name, v.file_path, v.pacing_score, v.intensity_score,
			v.dialogue_density, v.action_level, v.character_focus, v.emotional_tone,
			v.duration AS variant_duration,
			vs.device_type, vs.start_time, sv.watch_duration, sv.dropped_off`).
		Joins("JOIN ViewingSession AS vs ON vs.session_id = sv.session_id").
		Joins("JOIN User AS u ON u.user_id = vs.user_id").
		Joins("JOIN SceneVariant AS v ON v.variant_id = sv.variant_id").
		Joins("JOIN Scene AS s ON s.scene_id = v.scene_id").
		Joins("JOIN Movie AS m ON m.movie_id = s.movie_id").
		Where("sv.watch_duration > 0").
		Order("sv.viewing_id").
		Scan(&scans).Error
	if err != nil {
		return nil, core.Internal(core.ModuleStore, "extract training rows", err)
	}

	out := make([]core.TrainingRow, len(scans))
	for i := range scans {
		s := &scans[i]
		out[i] = core.TrainingRow{
			User: *s.UserRow.toProfile(),
			Movie: core.Movie{
				MovieID:     s.MovieID,
				Title:       s.MovieTitle,
				ReleaseYear: s.ReleaseYear,
				Duration:    s.MovieDuration,
				Genres:      s.MovieGenres,
				Rating:      s.MovieRating,
				IMDBRating:  s.IMDBRating,
				SceneCount:  s.SceneCount,
			},
			Scene: core.Scene{SceneID: s.SceneID, MovieID: s.MovieID, SceneIndex: s.SceneIndex},
			Variant: core.SceneVariant{
				VariantID:       s.VariantID,
				SceneID:         s.SceneID,
				Name:            s.VariantName,
				FilePath:        s.FilePath,
				PacingScore:     s.PacingScore,
				IntensityScore:  s.IntensityScore,
				DialogueDensity: s.DialogueDensity,
				ActionLevel:     s.ActionLevel,
				CharacterFocus:  s.CharacterFocus,
				EmotionalTone:   s.EmotionalTone,
				Duration:        s.VariantDuration,
			},
			DeviceType:    s.DeviceType,
			StartTime:     s.StartTime,
			WatchDuration: s.WatchDuration,
			DroppedOff:    s.DroppedOff,
		}
	}
	return out, nil
}

// batchSize 批量写入的单批行数
const batchSize = 500

// SaveWorld 在一个事务内写入合成的全部实体
func (r *Repository) SaveWorld(ctx context.Context, w *core.World) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]UserRow, len(w.Users))
		for i := range w.Users {
			users[i] = userRowFrom(&w.Users[i])
		}
		if err := createInBatches(tx, users); err != nil {
			return fmt.Errorf("insert users: %w", err)
		}

		var movies []MovieRow
		var scenes []SceneRow
		var variants []SceneVariantRow
		seenScene := make(map[int64]struct{})
		for i := range w.Movies {
			ms := &w.Movies[i]
			movies = append(movies, movieRowFrom(&ms.Movie))
			for j := range ms.Segments {
				seg := &ms.Segments[j]
				if _, ok := seenScene[seg.Scene.SceneID]; !ok {
					seenScene[seg.Scene.SceneID] = struct{}{}
					scenes = append(scenes, SceneRow{SceneID: seg.Scene.SceneID, MovieID: ms.Movie.MovieID, SceneIndex: seg.Scene.SceneIndex})
				}
				variants = append(variants, variantRowFrom(&seg.Variant))
			}
		}
		if err := createInBatches(tx, movies); err != nil {
			return fmt.Errorf("insert movies: %w", err)
		}
		if err := createInBatches(tx, scenes); err != nil {
			return fmt.Errorf("insert scenes: %w", err)
		}
		if err := createInBatches(tx, variants); err != nil {
			return fmt.Errorf("insert variants: %w", err)
		}

		sessions := make([]ViewingSessionRow, len(w.Sessions))
		for i, s := range w.Sessions {
			sessions[i] = ViewingSessionRow{
				SessionID: s.SessionID, UserID: s.UserID, MovieID: s.MovieID,
				StartTime: s.StartTime, EndTime: s.EndTime, DeviceType: s.DeviceType, Completed: s.Completed,
			}
		}
		if err := createInBatches(tx, sessions); err != nil {
			return fmt.Errorf("insert sessions: %w", err)
		}

		viewings := make([]SceneViewingRow, len(w.Viewings))
		for i, v := range w.Viewings {
			viewings[i] = SceneViewingRow{
				ViewingID: v.ViewingID, SessionID: v.SessionID, VariantID: v.VariantID,
				WatchDuration: v.WatchDuration, DroppedOff: v.DroppedOff, Timestamp: v.Timestamp,
			}
		}
		if err := createInBatches(tx, viewings); err != nil {
			return fmt.Errorf("insert viewings: %w", err)
		}
		r.log.Info("world saved",
			"users", len(users), "movies", len(movies), "scenes", len(scenes),
			"variants", len(variants), "sessions", len(sessions), "viewings", len(viewings))
		return nil
	})
}

func createInBatches[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, batchSize).Error
}

// Counts 各表行数
type Counts struct {
	Users, Movies, Scenes, Variants, Sessions, Viewings int64
}

// Count 统计各表行数
func (r *Repository) Count(ctx context.Context) (Counts, error) {
	var c Counts
	db := r.db.WithContext(ctx)
	for _, item := range []struct {
		model any
		dst   *int64
	}{
		{&UserRow{}, &c.Users},
		{&MovieRow{}, &c.Movies},
		{&SceneRow{}, &c.Scenes},
		{&SceneVariantRow{}, &c.Variants},
		{&ViewingSessionRow{}, &c.Sessions},
		{&SceneViewingRow{}, &c.Viewings},
	} {
		if err := db.Model(item.model).Count(item.dst).Error; err != nil {
			return Counts{}, core.Internal(core.ModuleStore, "count rows", err)
		}
	}
	return c, nil
}
