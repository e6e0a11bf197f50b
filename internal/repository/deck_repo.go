package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyerfyer/doc-ppt-system/internal/database"
	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeckRepository 大纲仓储接口
// 负责演示文稿大纲快照的存储和检索
type DeckRepository interface {
	// Create 创建大纲记录
	Create(deck *models.Deck) error

	// GetByID 根据ID获取大纲
	GetByID(id string) (*models.Deck, error)

	// GetLatestBySession 获取会话最新的大纲
	GetLatestBySession(sessionID string) (*models.Deck, error)

	// Update 更新大纲记录
	Update(deck *models.Deck) error

	// UpdateFilePath 记录渲染产物路径
	UpdateFilePath(id string, filePath string) error

	// Delete 删除大纲
	Delete(id string) error
}

// deckRepo 大纲仓储实现
type deckRepo struct {
	db *gorm.DB // 数据库连接
}

// NewDeckRepository 创建大纲仓储实例
func NewDeckRepository() DeckRepository {
	return &deckRepo{
		db: database.MustDB(),
	}
}

// NewDeckRepositoryWithDB 使用指定的数据库连接创建大纲仓储实例
func NewDeckRepositoryWithDB(db *gorm.DB) DeckRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &deckRepo{
		db: db,
	}
}

// Create 创建大纲记录
func (r *deckRepo) Create(deck *models.Deck) error {
	if deck.ID == "" {
		deck.ID = uuid.New().String()
	}
	if deck.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	return r.db.Create(deck).Error
}

// GetByID 根据ID获取大纲
func (r *deckRepo) GetByID(id string) (*models.Deck, error) {
	var deck models.Deck
	err := r.db.Where("id = ?", id).First(&deck).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("deck not found: %s", id)
		}
		return nil, err
	}
	return &deck, nil
}

// GetLatestBySession 获取会话最新的大纲
// 按修订版本号取最大者
func (r *deckRepo) GetLatestBySession(sessionID string) (*models.Deck, error) {
	var deck models.Deck
	err := r.db.Where("session_id = ?", sessionID).
		Order("revision DESC").
		First(&deck).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDeckNotFound
		}
		return nil, err
	}
	return &deck, nil
}

// Update 更新大纲记录
func (r *deckRepo) Update(deck *models.Deck) error {
	if deck.ID == "" {
		return errors.New("deck ID cannot be empty")
	}

	deck.UpdatedAt = time.Now()

	return r.db.Save(deck).Error
}

// UpdateFilePath 记录渲染产物路径
func (r *deckRepo) UpdateFilePath(id string, filePath string) error {
	return r.db.Model(&models.Deck{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"file_path":  filePath,
			"updated_at": time.Now(),
		}).Error
}

// Delete 删除大纲
func (r *deckRepo) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Deck{}).Error
}
