package postgres

import (
	"log"
	"sync"

	pg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/datamodels/offer"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/transaction"
	"github.com/example/gomarket/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Open 打开数据库连接并自动迁移表结构
// TranslateError 让唯一索引冲突以 gorm.ErrDuplicatedKey 暴露，
// idx_one_pending_per_buyer 的冲突依赖这个翻译。
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(
		&user.User{},
		&product.Product{},
		&offer.Offer{},
		&transaction.Transaction{},
	); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Init 初始化全局 GORM 实例
func Init(cfg *config.DatabaseConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = Open(pg.Open(cfg.DSN))
		if err != nil {
			log.Fatalf("failed to connect postgres: %v", err)
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}
