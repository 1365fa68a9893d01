package repository

import (
	"strings"

	"friendhub/internal/model"

	"gorm.io/gorm"
)

// VideoFilter 视频列表筛选条件，空字段表示不过滤
type VideoFilter struct {
	Query    string // 标题或描述包含（大小写不敏感）
	Category string // 分类精确匹配
	Uploader string // 上传者精确匹配
}

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// GetByID 根据 ID 获取视频
func (r *VideoRepository) GetByID(id string) (*model.Video, error) {
	var video model.Video
	err := r.db.Where("id = ?", id).First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// GetByIDs 批量获取视频（不保证顺序）
func (r *VideoRepository) GetByIDs(ids []string) ([]model.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var videos []model.Video
	err := r.db.Where("id IN ?", ids).Find(&videos).Error
	return videos, err
}

// Create 创建视频记录
func (r *VideoRepository) Create(video *model.Video) error {
	return r.db.Create(video).Error
}

// Delete 删除视频记录
func (r *VideoRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Video{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 按条件查询视频，最新的在前，不分页
func (r *VideoRepository) List(filter VideoFilter) ([]model.Video, error) {
	query := r.db.Model(&model.Video{})

	if filter.Uploader != "" {
		query = query.Where("uploader = ?", filter.Uploader)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Query != "" {
		pattern := "%" + escapeLike(model.FoldSearchText(filter.Query)) + "%"
		query = query.Where(`(title_folded LIKE ? ESCAPE '\' OR description_folded LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	videos := make([]model.Video, 0)
	if err := query.Order("created_at DESC").Order("id").Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

// IncrementViewCount 观看数 +1
func (r *VideoRepository) IncrementViewCount(id string) error {
	result := r.db.Model(&model.Video{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RefoldSearchColumns 为检索列为空的旧记录补齐小写副本，返回处理条数
func (r *VideoRepository) RefoldSearchColumns() (int, error) {
	var videos []model.Video
	if err := r.db.Where("title_folded IS NULL OR title_folded = ''").Find(&videos).Error; err != nil {
		return 0, err
	}
	for i := range videos {
		v := &videos[i]
		err := r.db.Model(&model.Video{}).Where("id = ?", v.ID).UpdateColumns(map[string]any{
			"title_folded":       model.FoldSearchText(v.Title),
			"description_folded": model.FoldSearchText(v.Description),
		}).Error
		if err != nil {
			return i, err
		}
	}
	return len(videos), nil
}

// escapeLike 转义 LIKE 通配符，使查询词按字面匹配
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
