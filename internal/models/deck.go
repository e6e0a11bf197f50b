package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deck 演示文稿大纲模型
// 存储会话当前的大纲快照，Slides为JSON序列化的幻灯片列表
type Deck struct {
	ID         string         `gorm:"primaryKey"`         // 大纲ID，主键
	SessionID  string         `gorm:"not null;index"`     // 所属会话ID
	DocumentID string         `gorm:"index"`              // 来源文档ID，可选
	Title      string         `gorm:"not null"`           // 演示文稿标题
	Slides     datatypes.JSON `gorm:"type:json"`          // 幻灯片列表，JSON格式
	Revision   int            `gorm:"not null;default:1"` // 修订版本号
	FilePath   string         `gorm:"size:255"`           // 渲染产物路径，未渲染时为空
	CreatedAt  time.Time      `gorm:"not null"`           // 创建时间
	UpdatedAt  time.Time      `gorm:"not null"`           // 更新时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (d *Deck) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if d.Revision == 0 {
		d.Revision = 1
	}
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (d *Deck) BeforeUpdate(tx *gorm.DB) (err error) {
	d.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Deck) TableName() string {
	return "decks"
}
